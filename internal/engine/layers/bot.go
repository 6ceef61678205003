package layers

import (
	"context"
	"math"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// humanCVFloor is the coefficient of variation below which inter-action
// timing is implausibly regular for a person.
const humanCVFloor = 0.25

// BotActivityLayer runs a regularity test on inter-action timing deltas.
// Pure statistics, no learned state; confidence scales with sample count
// so tiny samples degrade gracefully instead of false-flagging.
type BotActivityLayer struct{}

// NewBotActivityLayer creates the layer.
func NewBotActivityLayer() *BotActivityLayer {
	return &BotActivityLayer{}
}

func (l *BotActivityLayer) Name() string { return "bot_activity" }

func (l *BotActivityLayer) Evaluate(_ context.Context, ev *event.Event, _ *profile.Snapshot) (*engine.LayerScore, error) {
	deltas := ev.Behavioral.ActionDeltasMS
	n := len(deltas)
	if n < 4 {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.05 * float64(n),
			Evidence:   []string{"insufficient_timing_sample"},
		}, nil
	}

	mean, sd := meanStddev(deltas)
	if mean <= 0 {
		return &engine.LayerScore{
			Layer:      l.Name(),
			Score:      0.5,
			Confidence: 0.1,
			Evidence:   []string{"degenerate_timing_sample"},
		}, nil
	}

	cv := sd / mean
	score := 0.0
	var evidence []string
	if cv < humanCVFloor {
		score = (humanCVFloor - cv) / humanCVFloor
		evidence = append(evidence, "machine_regular_timing")
	}

	confidence := math.Min(0.9, float64(n)/24*0.9)

	return &engine.LayerScore{
		Layer:      l.Name(),
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

func meanStddev(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	sd = math.Sqrt(ss / float64(len(xs)))
	return mean, sd
}
