package engine

import (
	"context"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// Layer is the interface every fraud-signal layer implements.
// Evaluate receives the immutable event and a frozen profile snapshot and
// must not mutate either, must respect the ctx deadline, and must return
// Score and Confidence within [0,1].
type Layer interface {
	// Name returns the layer's unique identifier (e.g. "geo_velocity").
	Name() string

	// Evaluate scores the event against the profile snapshot.
	Evaluate(ctx context.Context, ev *event.Event, snap *profile.Snapshot) (*LayerScore, error)
}
