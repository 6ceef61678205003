package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists profiles as versioned JSONB documents.
//
// Schema:
//
//	CREATE TABLE account_profiles (
//	    account_id TEXT PRIMARY KEY,
//	    version    BIGINT NOT NULL,
//	    frozen     BOOLEAN NOT NULL DEFAULT FALSE,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Snapshot(ctx context.Context, accountID string) (*Snapshot, error) {
	var (
		doc     []byte
		version int64
		frozen  bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, version, frozen FROM account_profiles WHERE account_id = $1`,
		accountID,
	).Scan(&doc, &version, &frozen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("Snapshot: decode profile: %w", err)
	}
	p.AccountID = accountID
	p.Version = version
	p.Frozen = frozen
	return p.snapshot(), nil
}

func (s *PostgresStore) Save(ctx context.Context, p *Profile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("Save: encode profile: %w", err)
	}

	if p.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO account_profiles (account_id, version, frozen, doc, updated_at)
			VALUES ($1, 1, $2, $3, now())
			ON CONFLICT (account_id) DO NOTHING`,
			p.AccountID, p.Frozen, doc)
		if err != nil {
			return fmt.Errorf("Save: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return ErrConflict
		}
		p.Version = 1
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE account_profiles
		SET doc = $1, version = version + 1, updated_at = now()
		WHERE account_id = $2 AND version = $3`,
		doc, p.AccountID, p.Version)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrConflict
	}
	p.Version++
	return nil
}

// SetFrozen flips the freeze flag without touching the document version,
// so admin tooling does not race in-flight profile updates. An unknown
// account gets an empty frozen profile row.
func (s *PostgresStore) SetFrozen(ctx context.Context, accountID string, frozen bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_profiles (account_id, version, frozen, doc, updated_at)
		VALUES ($1, 1, $2, '{}'::jsonb, now())
		ON CONFLICT (account_id) DO UPDATE SET frozen = $2, updated_at = now()`,
		accountID, frozen)
	if err != nil {
		return fmt.Errorf("SetFrozen: %w", err)
	}
	return nil
}

func (s *PostgresStore) Frozen(ctx context.Context, accountID string) (bool, error) {
	var frozen bool
	err := s.db.QueryRowContext(ctx, `
		SELECT frozen FROM account_profiles WHERE account_id = $1`,
		accountID,
	).Scan(&frozen)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Frozen: %w", err)
	}
	return frozen, nil
}
