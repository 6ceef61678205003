package profile

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no profile exists for the account.
	ErrNotFound = errors.New("profile not found")
	// ErrConflict means the profile version changed between read and write.
	ErrConflict = errors.New("profile version conflict")
)

// Store is the account-profile collaborator contract. Snapshot returns a
// consistent point-in-time copy; Save applies an optimistic-versioned
// write (Ack on match, ErrConflict otherwise). Implementations must make
// both safe for concurrent use.
type Store interface {
	// Snapshot returns a read-only deep copy of the account's profile.
	Snapshot(ctx context.Context, accountID string) (*Snapshot, error)

	// Save persists the profile if its Version still matches the stored
	// one, then increments the version. ErrConflict on mismatch. A profile
	// with Version 0 is created; ErrConflict if it already exists.
	Save(ctx context.Context, p *Profile) error

	// Frozen reports whether the account is administratively frozen.
	Frozen(ctx context.Context, accountID string) (bool, error)
}

// FreezeStore extends Store with the administrative freeze control used by
// the admin endpoints. Both shipped stores implement it.
type FreezeStore interface {
	Store
	SetFrozen(ctx context.Context, accountID string, frozen bool) error
}
