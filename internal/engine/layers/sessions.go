package layers

import (
	"sync"
	"time"
)

// SIMObservation records one SIM identity seen for an MSISDN.
type SIMObservation struct {
	IdentityHash string
	FirstSeen    time.Time
	LastSeen     time.Time
}

// SessionRegistry tracks which SIM identities have been presented for each
// MSISDN inside a bounded concurrency window. It is the cross-session
// memory the SIM cloning rule needs; entries outside the window are pruned
// on write, so memory stays proportional to recent activity.
type SessionRegistry struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string][]SIMObservation // keyed by MSISDN
}

// NewSessionRegistry creates a registry with the given overlap window.
func NewSessionRegistry(window time.Duration) *SessionRegistry {
	return &SessionRegistry{
		window: window,
		seen:   make(map[string][]SIMObservation),
	}
}

// Observe records the identity hash for the MSISDN at the given time and
// returns any conflicting observation: a different hash for the same
// MSISDN still inside the window. firstSeen is when this identity was
// first enrolled on the account (now, if never enrolled).
func (r *SessionRegistry) Observe(msisdn, identityHash string, at, firstSeen time.Time) *SIMObservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := at.Add(-r.window)
	kept := r.seen[msisdn][:0]
	var conflict *SIMObservation
	found := false

	for _, obs := range r.seen[msisdn] {
		if obs.LastSeen.Before(cutoff) {
			continue
		}
		obs := obs
		if obs.IdentityHash == identityHash {
			obs.LastSeen = at
			if firstSeen.Before(obs.FirstSeen) {
				obs.FirstSeen = firstSeen
			}
			found = true
		} else if conflict == nil || obs.LastSeen.After(conflict.LastSeen) {
			c := obs
			conflict = &c
		}
		kept = append(kept, obs)
	}

	if !found {
		kept = append(kept, SIMObservation{
			IdentityHash: identityHash,
			FirstSeen:    firstSeen,
			LastSeen:     at,
		})
	}
	r.seen[msisdn] = kept
	return conflict
}
