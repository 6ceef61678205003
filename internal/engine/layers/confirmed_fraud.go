package layers

import (
	"context"
	"sync"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// PatternStore is the confirmed-fraud collaborator: a registry of device
// and SIM identifiers tied to investigated fraud cases, each with a match
// confidence.
type PatternStore interface {
	Lookup(ctx context.Context, deviceID, simIdentityHash string) (confidence float64, found bool, err error)
}

// ConfirmedFraudLayer checks the event's device and SIM against confirmed
// fraud patterns. A high-confidence match is the strongest signal in the
// system and forces Deny via hard override.
type ConfirmedFraudLayer struct {
	patterns PatternStore
}

// NewConfirmedFraudLayer creates the layer; patterns may be nil.
func NewConfirmedFraudLayer(patterns PatternStore) *ConfirmedFraudLayer {
	return &ConfirmedFraudLayer{patterns: patterns}
}

func (l *ConfirmedFraudLayer) Name() string { return "confirmed_fraud" }

func (l *ConfirmedFraudLayer) Evaluate(ctx context.Context, ev *event.Event, _ *profile.Snapshot) (*engine.LayerScore, error) {
	if l.patterns == nil {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0,
			Confidence: 0,
			Evidence:   []string{"fraud_feed_absent"},
		}, nil
	}

	confidence, found, err := l.patterns.Lookup(ctx, ev.Device.DeviceID, ev.SIM.IdentityHash)
	if err != nil {
		return nil, err
	}
	if !found {
		return &engine.LayerScore{Layer: l.Name(), Score: 0, Confidence: 0.6}, nil
	}

	out := &engine.LayerScore{Layer: l.Name(), Confidence: 0.9}
	switch {
	case confidence >= 0.8:
		out.Score = 1
		out.Evidence = []string{"confirmed_fraud_pattern"}
		out.Override = &engine.Override{
			Action: engine.DecisionDeny,
			Reason: "confirmed_fraud",
		}
	case confidence >= 0.6:
		out.Score = 0.75
		out.Evidence = []string{"fraud_pattern_similarity"}
	default:
		out.Score = confidence
		out.Confidence = 0.5
	}
	return out, nil
}

// MemoryPatternStore is an in-memory PatternStore for tests and dev mode.
type MemoryPatternStore struct {
	mu       sync.RWMutex
	byDevice map[string]float64
	bySIM    map[string]float64
}

var _ PatternStore = (*MemoryPatternStore)(nil)

// NewMemoryPatternStore creates an empty pattern store.
func NewMemoryPatternStore() *MemoryPatternStore {
	return &MemoryPatternStore{
		byDevice: make(map[string]float64),
		bySIM:    make(map[string]float64),
	}
}

// AddDevice registers a device id seen in a confirmed fraud case.
func (s *MemoryPatternStore) AddDevice(deviceID string, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDevice[deviceID] = confidence
}

// AddSIM registers a SIM identity hash seen in a confirmed fraud case.
func (s *MemoryPatternStore) AddSIM(identityHash string, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySIM[identityHash] = confidence
}

func (s *MemoryPatternStore) Lookup(_ context.Context, deviceID, simIdentityHash string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, found := 0.0, false
	if c, ok := s.byDevice[deviceID]; ok && c > best {
		best, found = c, true
	}
	if c, ok := s.bySIM[simIdentityHash]; ok && c > best {
		best, found = c, true
	}
	return best, found, nil
}
