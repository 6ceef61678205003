package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and DSN-less dev mode.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Profile)}
}

func (s *MemoryStore) Snapshot(_ context.Context, accountID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.snapshot(), nil
}

func (s *MemoryStore) Save(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[p.AccountID]
	if !ok {
		if p.Version != 0 {
			return ErrConflict
		}
	} else if existing.Version != p.Version {
		return ErrConflict
	}

	stored := *p
	stored.Version = p.Version + 1
	stored.UpdatedAt = time.Now().UTC()
	stored.Baseline.Mean = append([]float64(nil), p.Baseline.Mean...)
	stored.Baseline.M2 = append([]float64(nil), p.Baseline.M2...)
	stored.Devices = append([]DeviceRecord(nil), p.Devices...)
	stored.GeoTrail = append([]GeoPoint(nil), p.GeoTrail...)
	stored.SIMHistory = append([]SIMRecord(nil), p.SIMHistory...)
	s.profiles[p.AccountID] = &stored
	p.Version = stored.Version
	return nil
}

func (s *MemoryStore) Frozen(_ context.Context, accountID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return false, nil
	}
	return p.Frozen, nil
}

// SetFrozen flips the administrative freeze flag. Used by admin tooling
// and tests; freezing does not bump the profile version.
func (s *MemoryStore) SetFrozen(_ context.Context, accountID string, frozen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		p = NewProfile(accountID)
		p.Version = 1
		s.profiles[accountID] = p
	}
	p.Frozen = frozen
	return nil
}
