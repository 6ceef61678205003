// Package profile holds per-account behavioral, device, geo and SIM history
// and the single-writer update discipline around it. Layers only ever see
// read-only snapshots; mutation happens exclusively through the Updater
// after an Allow decision.
package profile

import (
	"math"
	"time"
)

// Bounds caps the per-account history sizes. Histories never shrink except
// by evicting their oldest entries once a bound is hit.
type Bounds struct {
	GeoTrailLen        int
	MaxDevices         int
	MaxSIMHistory      int
	BaselineMinSamples int
}

// DefaultBounds returns the service defaults.
func DefaultBounds() Bounds {
	return Bounds{
		GeoTrailLen:        32,
		MaxDevices:         8,
		MaxSIMHistory:      16,
		BaselineMinSamples: 5,
	}
}

// Baseline is the enrolled behavioral centroid with per-dimension variance,
// maintained incrementally (Welford). Count below the minimum sample bound
// means the baseline is cold and must not be trusted for scoring.
type Baseline struct {
	Count int       `json:"count"`
	Mean  []float64 `json:"mean"`
	M2    []float64 `json:"m2"`
}

// Cold reports whether the baseline has too few samples to score against.
func (b *Baseline) Cold(minSamples int) bool {
	return b == nil || b.Count < minSamples
}

// Variance returns the per-dimension sample variance, or nil when fewer
// than two samples have been observed.
func (b *Baseline) Variance() []float64 {
	if b.Count < 2 {
		return nil
	}
	out := make([]float64, len(b.M2))
	for i, m2 := range b.M2 {
		out[i] = m2 / float64(b.Count-1)
	}
	return out
}

// Observe folds one feature vector into the running mean and variance.
// A dimension-count change resets the baseline rather than mixing
// incompatible feature spaces.
func (b *Baseline) Observe(features []float64) {
	if len(features) == 0 {
		return
	}
	if len(b.Mean) != len(features) {
		b.Count = 0
		b.Mean = make([]float64, len(features))
		b.M2 = make([]float64, len(features))
	}
	b.Count++
	for i, x := range features {
		delta := x - b.Mean[i]
		b.Mean[i] += delta / float64(b.Count)
		b.M2[i] += delta * (x - b.Mean[i])
	}
}

// Distance returns the mean per-dimension z-distance of the sample from the
// baseline centroid. Dimensions with near-zero variance use an absolute
// floor so a single noisy reading cannot blow the distance up.
func (b *Baseline) Distance(features []float64) float64 {
	if len(features) == 0 || len(b.Mean) != len(features) {
		return math.NaN()
	}
	variance := b.Variance()
	var sum float64
	for i, x := range features {
		sigma := 1.0
		if variance != nil && variance[i] > 1e-6 {
			sigma = math.Sqrt(variance[i])
		} else if math.Abs(b.Mean[i]) > 1e-6 {
			sigma = math.Abs(b.Mean[i]) * 0.1
		}
		sum += math.Abs(x-b.Mean[i]) / sigma
	}
	return sum / float64(len(features))
}

// DeviceRecord is one entry in the bounded known-devices set, ordered
// most-recently-seen first.
type DeviceRecord struct {
	DeviceID     string    `json:"device_id"`
	HardwareHash string    `json:"hardware_hash"`
	OSBuildHash  string    `json:"os_build_hash"`
	MutableHash  string    `json:"mutable_hash"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// SIMStatus tracks the lifecycle of a SIM identity on the account.
type SIMStatus string

const (
	SIMActive       SIMStatus = "active"
	SIMAcknowledged SIMStatus = "acknowledged" // bank-confirmed change of SIM
	SIMRetired      SIMStatus = "retired"
)

// SIMRecord is one entry in the append-only SIM history.
type SIMRecord struct {
	CarrierID    string    `json:"carrier_id"`
	IdentityHash string    `json:"identity_hash"`
	MSISDN       string    `json:"msisdn"`
	FirstSeen    time.Time `json:"first_seen"`
	Status       SIMStatus `json:"status"`
}

// GeoPoint is one entry in the bounded geo trail ring.
type GeoPoint struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AccuracyKM float64   `json:"accuracy_km"`
	At         time.Time `json:"at"`
}

// Profile is the mutable per-account state. Version implements the
// optimistic Ack|Conflict update contract on the store.
type Profile struct {
	AccountID  string         `json:"account_id"`
	Version    int64          `json:"version"`
	Baseline   Baseline       `json:"baseline"`
	Devices    []DeviceRecord `json:"devices"`
	GeoTrail   []GeoPoint     `json:"geo_trail"`
	SIMHistory []SIMRecord    `json:"sim_history"`
	Frozen     bool           `json:"frozen"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Snapshot is a point-in-time deep copy of a Profile handed to layers.
// Layers treat it as read-only; it never observes a partial write.
type Snapshot struct {
	AccountID  string
	Version    int64
	Baseline   Baseline
	Devices    []DeviceRecord
	GeoTrail   []GeoPoint
	SIMHistory []SIMRecord
	Frozen     bool
}

// NewProfile returns an empty (cold) profile for the account.
func NewProfile(accountID string) *Profile {
	return &Profile{AccountID: accountID}
}

// snapshot deep-copies the profile into a read-only view.
func (p *Profile) snapshot() *Snapshot {
	s := &Snapshot{
		AccountID: p.AccountID,
		Version:   p.Version,
		Frozen:    p.Frozen,
		Baseline: Baseline{
			Count: p.Baseline.Count,
			Mean:  append([]float64(nil), p.Baseline.Mean...),
			M2:    append([]float64(nil), p.Baseline.M2...),
		},
		Devices:    append([]DeviceRecord(nil), p.Devices...),
		GeoTrail:   append([]GeoPoint(nil), p.GeoTrail...),
		SIMHistory: append([]SIMRecord(nil), p.SIMHistory...),
	}
	return s
}

// Device returns the known-device record matching the id, or nil.
func (s *Snapshot) Device(deviceID string) *DeviceRecord {
	for i := range s.Devices {
		if s.Devices[i].DeviceID == deviceID {
			return &s.Devices[i]
		}
	}
	return nil
}

// CurrentSIM returns the most recent non-retired SIM record, or nil.
func (s *Snapshot) CurrentSIM() *SIMRecord {
	for i := len(s.SIMHistory) - 1; i >= 0; i-- {
		if s.SIMHistory[i].Status != SIMRetired {
			return &s.SIMHistory[i]
		}
	}
	return nil
}

// SIMByHash returns the history record for the identity hash, or nil.
func (s *Snapshot) SIMByHash(identityHash string) *SIMRecord {
	for i := range s.SIMHistory {
		if s.SIMHistory[i].IdentityHash == identityHash {
			return &s.SIMHistory[i]
		}
	}
	return nil
}

// LastGeo returns the most recent trail point, or nil for a fresh account.
func (s *Snapshot) LastGeo() *GeoPoint {
	if len(s.GeoTrail) == 0 {
		return nil
	}
	return &s.GeoTrail[len(s.GeoTrail)-1]
}
