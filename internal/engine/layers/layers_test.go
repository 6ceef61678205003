package layers

import (
	"time"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

func testTime() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

// enrolled builds a snapshot holding the synthetic account's known device,
// SIM and a home-location trail point as of testTime.
func enrolled(accountID string) *profile.Snapshot {
	dev := event.EnrolledDevice(accountID)
	sim := event.EnrolledSIM(accountID)
	earlier := testTime().Add(-30 * 24 * time.Hour)

	return &profile.Snapshot{
		AccountID: accountID,
		Devices: []profile.DeviceRecord{{
			DeviceID:     dev.DeviceID,
			HardwareHash: dev.HardwareHash,
			OSBuildHash:  dev.OSBuildHash,
			MutableHash:  dev.MutableHash,
			FirstSeen:    earlier,
			LastSeen:     testTime().Add(-time.Hour),
		}},
		SIMHistory: []profile.SIMRecord{{
			CarrierID:    sim.CarrierID,
			IdentityHash: sim.IdentityHash,
			MSISDN:       sim.MSISDN,
			FirstSeen:    earlier,
			Status:       profile.SIMActive,
		}},
		GeoTrail: []profile.GeoPoint{{
			Lat: 12.9716, Lon: 77.5946, AccuracyKM: 0.05,
			At: testTime().Add(-time.Hour),
		}},
	}
}
