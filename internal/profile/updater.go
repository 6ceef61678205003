package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/syncutil"
)

// Updater owns all profile mutation. Writes are serialized per account via
// a keyed mutex so two concurrent sessions never interleave, and callers
// invoke Apply only after an Allow decision — fraudulent sessions must not
// poison the baseline.
type Updater struct {
	store  Store
	locks  *syncutil.KeyedMutex
	bounds Bounds
	logger *zap.Logger
}

// NewUpdater creates an Updater over the store with the given bounds.
func NewUpdater(store Store, bounds Bounds, logger *zap.Logger) *Updater {
	return &Updater{
		store:  store,
		locks:  syncutil.NewKeyedMutex(),
		bounds: bounds,
		logger: logger,
	}
}

// Apply folds an allowed event into the account's profile: baseline sample,
// geo trail point, device record, SIM record. A version conflict (admin
// tooling racing the write) is retried once after re-reading.
func (u *Updater) Apply(ctx context.Context, ev *event.Event) error {
	unlock, err := u.locks.Lock(ctx, ev.AccountID)
	if err != nil {
		return fmt.Errorf("profile update lock: %w", err)
	}
	defer unlock()

	for attempt := 0; attempt < 2; attempt++ {
		p, err := u.load(ctx, ev.AccountID)
		if err != nil {
			return err
		}
		u.fold(p, ev)
		err = u.store.Save(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return fmt.Errorf("profile save: %w", err)
		}
		u.logger.Warn("profile version conflict, retrying",
			zap.String("account_id", ev.AccountID),
		)
	}
	return ErrConflict
}

func (u *Updater) load(ctx context.Context, accountID string) (*Profile, error) {
	snap, err := u.store.Snapshot(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return NewProfile(accountID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile load: %w", err)
	}
	return &Profile{
		AccountID:  snap.AccountID,
		Version:    snap.Version,
		Baseline:   snap.Baseline,
		Devices:    snap.Devices,
		GeoTrail:   snap.GeoTrail,
		SIMHistory: snap.SIMHistory,
		Frozen:     snap.Frozen,
	}, nil
}

func (u *Updater) fold(p *Profile, ev *event.Event) {
	if len(ev.Behavioral.Features) > 0 {
		p.Baseline.Observe(ev.Behavioral.Features)
	}
	u.foldDevice(p, ev.Device, ev.Timestamp)
	u.foldGeo(p, ev.Geo, ev.Timestamp)
	u.foldSIM(p, ev.SIM, ev.Timestamp)
}

// foldDevice upserts the device to the front of the known set, evicting
// the least recently seen record past the bound.
func (u *Updater) foldDevice(p *Profile, d event.DeviceSnapshot, at time.Time) {
	for i := range p.Devices {
		if p.Devices[i].DeviceID == d.DeviceID {
			rec := p.Devices[i]
			rec.MutableHash = d.MutableHash
			rec.LastSeen = at
			p.Devices = append(p.Devices[:i], p.Devices[i+1:]...)
			p.Devices = append([]DeviceRecord{rec}, p.Devices...)
			return
		}
	}
	rec := DeviceRecord{
		DeviceID:     d.DeviceID,
		HardwareHash: d.HardwareHash,
		OSBuildHash:  d.OSBuildHash,
		MutableHash:  d.MutableHash,
		FirstSeen:    at,
		LastSeen:     at,
	}
	p.Devices = append([]DeviceRecord{rec}, p.Devices...)
	if len(p.Devices) > u.bounds.MaxDevices {
		p.Devices = p.Devices[:u.bounds.MaxDevices]
	}
}

// foldGeo appends to the trail ring, dropping the oldest point when full.
func (u *Updater) foldGeo(p *Profile, g event.GeoCoordinate, at time.Time) {
	p.GeoTrail = append(p.GeoTrail, GeoPoint{
		Lat:        g.Lat,
		Lon:        g.Lon,
		AccuracyKM: g.AccuracyKM,
		At:         at,
	})
	if len(p.GeoTrail) > u.bounds.GeoTrailLen {
		p.GeoTrail = p.GeoTrail[len(p.GeoTrail)-u.bounds.GeoTrailLen:]
	}
}

// foldSIM appends a first sighting or keeps the record as-is; history is
// append-only with oldest-entry eviction at the bound.
func (u *Updater) foldSIM(p *Profile, s event.SIMIdentity, at time.Time) {
	for i := range p.SIMHistory {
		if p.SIMHistory[i].IdentityHash == s.IdentityHash {
			return
		}
	}
	p.SIMHistory = append(p.SIMHistory, SIMRecord{
		CarrierID:    s.CarrierID,
		IdentityHash: s.IdentityHash,
		MSISDN:       s.MSISDN,
		FirstSeen:    at,
		Status:       SIMActive,
	})
	if len(p.SIMHistory) > u.bounds.MaxSIMHistory {
		p.SIMHistory = p.SIMHistory[len(p.SIMHistory)-u.bounds.MaxSIMHistory:]
	}
}
