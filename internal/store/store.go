// Package store provides tenant persistence for the control plane.
// The decision path only touches it through auth lookups.
package store

import (
	"context"
	"database/sql"
)

// TenantStore is the tenant persistence contract. Postgres backs it in
// production; MemoryStore backs it in local development and tests.
type TenantStore interface {
	CreateTenant(ctx context.Context, name, alertChannel string) (*Tenant, string, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	UpdateTenant(ctx context.Context, id string, params UpdateTenantParams) (*Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
	RotateAPIKey(ctx context.Context, id string) (*Tenant, string, error)
	LookupByPrefix(ctx context.Context, prefix string) (*Tenant, error)
}

// Store provides access to the PostgreSQL database for tenant CRUD.
type Store struct {
	db *sql.DB
}

var _ TenantStore = (*Store)(nil)

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
