package layers

import (
	"context"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// SimIntelligenceLayer detects SIM swaps and SIM cloning. It is one of the
// two hard-override producers: an unacknowledged swap paired with a device
// mismatch, or losing the clone tiebreak, forces Deny.
type SimIntelligenceLayer struct {
	sessions *SessionRegistry
}

// NewSimIntelligenceLayer creates the layer with its concurrency-window
// registry.
func NewSimIntelligenceLayer(sessions *SessionRegistry) *SimIntelligenceLayer {
	return &SimIntelligenceLayer{sessions: sessions}
}

func (l *SimIntelligenceLayer) Name() string { return "sim_intelligence" }

func (l *SimIntelligenceLayer) Evaluate(_ context.Context, ev *event.Event, snap *profile.Snapshot) (*engine.LayerScore, error) {
	out := &engine.LayerScore{Layer: l.Name(), Confidence: 0.9}

	// First-seen time for this identity on the account; an identity the
	// account never enrolled is treated as newest, so it loses the clone
	// tiebreak against the enrolled SIM.
	firstSeen := ev.Timestamp
	if rec := snap.SIMByHash(ev.SIM.IdentityHash); rec != nil {
		firstSeen = rec.FirstSeen
	}

	// Clone check runs regardless of swap state: two overlapping sessions
	// presenting conflicting hashes for one MSISDN flag both, and the
	// later-enrolled identity is denied.
	if conflict := l.sessions.Observe(ev.SIM.MSISDN, ev.SIM.IdentityHash, ev.Timestamp, firstSeen); conflict != nil {
		out.Score = 1
		out.Evidence = append(out.Evidence, "sim_clone_conflict")
		if !firstSeen.Before(conflict.FirstSeen) {
			out.Override = &engine.Override{
				Action: engine.DecisionDeny,
				Reason: "sim_clone",
			}
		}
		return out, nil
	}

	current := snap.CurrentSIM()
	if current == nil {
		// No SIM history yet; mildly elevated, low confidence.
		out.Score = 0.2
		out.Confidence = 0.4
		out.Evidence = append(out.Evidence, "no_sim_history")
		return out, nil
	}
	if current.IdentityHash == ev.SIM.IdentityHash {
		return out, nil
	}

	if rec := snap.SIMByHash(ev.SIM.IdentityHash); rec != nil && rec.Status == profile.SIMAcknowledged {
		out.Score = 0.2
		out.Evidence = append(out.Evidence, "acknowledged_sim_change")
		return out, nil
	}

	// Unacknowledged swap. A swap arriving together with a device the
	// account has never seen is the takeover signature and forces Deny.
	out.Score = 0.85
	out.Evidence = append(out.Evidence, "sim_swap")
	if snap.Device(ev.Device.DeviceID) == nil {
		out.Score = 0.95
		out.Evidence = append(out.Evidence, "sim_swap_device_mismatch")
		out.Override = &engine.Override{
			Action: engine.DecisionDeny,
			Reason: "sim_swap_device_mismatch",
		}
	}
	return out, nil
}
