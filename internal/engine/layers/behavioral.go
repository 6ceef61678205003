// Package layers contains the seven fraud-signal layers. Each layer is a
// pure function of the immutable event and a frozen profile snapshot,
// registered with the engine at wiring time.
package layers

import (
	"context"
	"math"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// BehavioralLayer scores the session's interaction dynamics against the
// enrolled baseline centroid.
type BehavioralLayer struct {
	minSamples int
}

// NewBehavioralLayer creates the layer; minSamples is the cold-start bound
// below which the baseline is not trusted.
func NewBehavioralLayer(minSamples int) *BehavioralLayer {
	if minSamples <= 0 {
		minSamples = profile.DefaultBounds().BaselineMinSamples
	}
	return &BehavioralLayer{minSamples: minSamples}
}

func (l *BehavioralLayer) Name() string { return "behavioral_biometrics" }

// Evaluate maps the mean z-distance from the enrolled centroid through a
// monotonic saturating curve. Cold baselines return neutral rather than
// false-flagging new accounts.
func (l *BehavioralLayer) Evaluate(_ context.Context, ev *event.Event, snap *profile.Snapshot) (*engine.LayerScore, error) {
	if len(ev.Behavioral.Features) == 0 {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.1,
			Evidence:   []string{"no_behavioral_sample"},
		}, nil
	}
	if snap.Baseline.Cold(l.minSamples) {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.2,
			Evidence:   []string{"cold_baseline"},
		}, nil
	}

	dist := snap.Baseline.Distance(ev.Behavioral.Features)
	if math.IsNaN(dist) {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.2,
			Evidence:   []string{"baseline_dimension_mismatch"},
		}, nil
	}

	// Saturates toward 1 as distance grows; distance 2σ maps to 0.5.
	score := dist / (dist + 2)

	confidence := math.Min(0.95, 0.5+float64(snap.Baseline.Count)/40)
	var evidence []string
	if score >= 0.5 {
		evidence = append(evidence, "behavioral_anomaly")
	}

	return &engine.LayerScore{
		Layer:      l.Name(),
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}
