package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory TenantStore for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
}

var _ TenantStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory tenant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]*Tenant)}
}

func (s *MemoryStore) CreateTenant(_ context.Context, name, alertChannel string) (*Tenant, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}
	if alertChannel == "" {
		alertChannel = "log"
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:           uuid.New().String(),
		Name:         name,
		APIKeyHash:   keyHash,
		APIKeyPrefix: keyPrefix,
		AlertChannel: alertChannel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.tenants[t.ID] = t
	s.mu.Unlock()

	cp := *t
	return &cp, fullKey, nil
}

func (s *MemoryStore) ListTenants(_ context.Context) ([]*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) GetTenant(_ context.Context, id string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) UpdateTenant(_ context.Context, id string, params UpdateTenantParams) (*Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	if params.Name != nil {
		t.Name = *params.Name
	}
	if params.AlertChannel != nil {
		t.AlertChannel = *params.AlertChannel
	}
	if params.AllowBelow != nil {
		v := *params.AllowBelow
		t.AllowBelow = &v
	}
	if params.DenyAt != nil {
		v := *params.DenyAt
		t.DenyAt = &v
	}
	t.UpdatedAt = time.Now().UTC()

	cp := *t
	return &cp, nil
}

func (s *MemoryStore) DeleteTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.tenants, id)
	return nil
}

func (s *MemoryStore) RotateAPIKey(_ context.Context, id string) (*Tenant, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, "", sql.ErrNoRows
	}
	t.APIKeyHash = keyHash
	t.APIKeyPrefix = keyPrefix
	t.UpdatedAt = time.Now().UTC()

	cp := *t
	return &cp, fullKey, nil
}

func (s *MemoryStore) LookupByPrefix(_ context.Context, prefix string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.APIKeyPrefix == prefix {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}
