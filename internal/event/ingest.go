package event

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed is returned when a raw event fails ingestion validation.
// This is the only point in the pipeline that may reject before scoring.
var ErrMalformed = errors.New("malformed event")

// maxClockSkew bounds how far into the future a client timestamp may sit
// before we treat it as garbage rather than clock drift.
const maxClockSkew = 5 * time.Minute

// Ingest validates a raw event and returns the canonical immutable Event.
// An empty ID is assigned a fresh UUID; a zero timestamp is stamped with
// the current time. All other fields must already be well-formed.
func Ingest(raw Event) (*Event, error) {
	if raw.AccountID == "" {
		return nil, fmt.Errorf("%w: account_id is required", ErrMalformed)
	}
	if raw.ID == "" {
		raw.ID = uuid.New().String()
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = time.Now().UTC()
	}
	if raw.Timestamp.After(time.Now().Add(maxClockSkew)) {
		return nil, fmt.Errorf("%w: timestamp %s is in the future", ErrMalformed, raw.Timestamp.Format(time.RFC3339))
	}
	if raw.Geo.Lat < -90 || raw.Geo.Lat > 90 {
		return nil, fmt.Errorf("%w: latitude %.4f out of range", ErrMalformed, raw.Geo.Lat)
	}
	if raw.Geo.Lon < -180 || raw.Geo.Lon > 180 {
		return nil, fmt.Errorf("%w: longitude %.4f out of range", ErrMalformed, raw.Geo.Lon)
	}
	if raw.Geo.AccuracyKM < 0 {
		return nil, fmt.Errorf("%w: negative accuracy", ErrMalformed)
	}
	if !raw.Channel.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrMalformed, raw.Channel)
	}
	for i, f := range raw.Behavioral.Features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: behavioral feature %d is not finite", ErrMalformed, i)
		}
	}
	for i, d := range raw.Behavioral.ActionDeltasMS {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: action delta %d is invalid", ErrMalformed, i)
		}
	}

	ev := raw
	return &ev, nil
}
