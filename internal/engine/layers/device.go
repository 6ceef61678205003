package layers

import (
	"context"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// DeviceFingerprintLayer compares the presented device snapshot against the
// account's known devices. Immutable attributes changing under a matching
// device id and mutable set is the spoofing signature; mutable-only drift
// is an ordinary update.
type DeviceFingerprintLayer struct{}

// NewDeviceFingerprintLayer creates the layer.
func NewDeviceFingerprintLayer() *DeviceFingerprintLayer {
	return &DeviceFingerprintLayer{}
}

func (l *DeviceFingerprintLayer) Name() string { return "device_fingerprint" }

func (l *DeviceFingerprintLayer) Evaluate(_ context.Context, ev *event.Event, snap *profile.Snapshot) (*engine.LayerScore, error) {
	out := &engine.LayerScore{Layer: l.Name()}

	if len(snap.Devices) == 0 {
		out.Score = 0.3
		out.Confidence = 0.3
		out.Evidence = []string{"no_device_history"}
		return out, nil
	}

	known := snap.Device(ev.Device.DeviceID)
	if known == nil {
		out.Score = 0.6
		out.Confidence = 0.8
		out.Evidence = []string{"unknown_device"}
		return out, nil
	}

	immutableMismatch := known.HardwareHash != ev.Device.HardwareHash ||
		known.OSBuildHash != ev.Device.OSBuildHash
	mutableMatch := known.MutableHash == ev.Device.MutableHash

	switch {
	case immutableMismatch && mutableMatch:
		// Hardware identity changed while everything copyable matched:
		// a replayed fingerprint on different hardware.
		out.Score = 0.9
		out.Confidence = 0.9
		out.Evidence = []string{"device_spoof"}
	case immutableMismatch:
		out.Score = 0.7
		out.Confidence = 0.8
		out.Evidence = []string{"device_immutable_mismatch"}
	case !mutableMatch:
		// OS/app update churn.
		out.Score = 0.1
		out.Confidence = 0.9
		out.Evidence = []string{"device_update"}
	default:
		out.Score = 0
		out.Confidence = 0.95
	}
	return out, nil
}
