package layers

import (
	"context"
	"math"
	"time"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

const (
	earthRadiusKM = 6371.0
	// minElapsed floors the time delta so clock skew between client
	// devices cannot manufacture infinite speed.
	minElapsed = time.Minute
)

// GeoVelocityLayer computes the implied travel speed from the last trail
// point and scores it against a plausible-transport ceiling.
type GeoVelocityLayer struct {
	ceilingKMH float64
}

// NewGeoVelocityLayer creates the layer; ceilingKMH <= 0 uses the default
// 900 km/h commercial-flight ceiling.
func NewGeoVelocityLayer(ceilingKMH float64) *GeoVelocityLayer {
	if ceilingKMH <= 0 {
		ceilingKMH = 900
	}
	return &GeoVelocityLayer{ceilingKMH: ceilingKMH}
}

func (l *GeoVelocityLayer) Name() string { return "geo_velocity" }

func (l *GeoVelocityLayer) Evaluate(_ context.Context, ev *event.Event, snap *profile.Snapshot) (*engine.LayerScore, error) {
	last := snap.LastGeo()
	if last == nil {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.1,
			Evidence:   []string{"no_geo_history"},
		}, nil
	}

	elapsed := ev.Timestamp.Sub(last.At)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	// Both fixes carry an accuracy radius; the tolerance band subtracts
	// them so coarse fixes in one city do not read as movement.
	dist := haversineKM(last.Lat, last.Lon, ev.Geo.Lat, ev.Geo.Lon)
	dist -= last.AccuracyKM + ev.Geo.AccuracyKM
	if dist < 0 {
		dist = 0
	}

	speed := dist / elapsed.Hours()
	ratio := speed / l.ceilingKMH

	// Monotone in the ratio, 0.5 exactly at the ceiling, saturating at 1.
	score := (ratio * ratio) / (ratio*ratio + 1)

	var evidence []string
	switch {
	case ratio > 1:
		evidence = append(evidence, "impossible_travel")
	case ratio > 0.5:
		evidence = append(evidence, "high_velocity")
	}

	return &engine.LayerScore{
		Layer:      l.Name(),
		Score:      score,
		Confidence: 0.9,
		Evidence:   evidence,
	}, nil
}

// haversineKM returns the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
