package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/metrics"
	"github.com/banksecure/vigil/internal/profile"
)

// FreezeChecker reports administrative freeze state for an account while
// scoring is in flight.
type FreezeChecker interface {
	Frozen(ctx context.Context, accountID string) (bool, error)
}

// RiskEngine fans out one event to all signal layers in parallel against a
// frozen (Event, Snapshot) pair and joins the results under a deadline.
type RiskEngine struct {
	layers  []Layer
	timeout time.Duration
	freezes FreezeChecker
	logger  *zap.Logger
}

// NewRiskEngine creates an engine with the given layers and join timeout.
// freezes may be nil, disabling mid-flight freeze checks.
func NewRiskEngine(layers []Layer, timeout time.Duration, freezes FreezeChecker, logger *zap.Logger) *RiskEngine {
	return &RiskEngine{
		layers:  layers,
		timeout: timeout,
		freezes: freezes,
		logger:  logger,
	}
}

// Evaluation is the joined output of one fan-out run.
type Evaluation struct {
	Scores   []*LayerScore // layers that completed in time
	TimedOut []string      // layers that missed the deadline
	Failed   []string      // layers that returned an error
	Frozen   bool          // account found frozen mid-flight
	Elapsed  time.Duration
}

// layerOutput pairs one layer's result with its metadata.
type layerOutput struct {
	name  string
	score *LayerScore
	err   error
}

// Evaluate runs every layer concurrently and collects whatever finishes
// before the deadline. Each goroutine sends into a channel buffered for
// all layers, so late finishers never block and are simply never read;
// cancelling the shared ctx is the explicit stop signal reaching in-flight
// layers. If the freeze checker reports the account frozen, remaining work
// is cancelled and Frozen is set — the caller short-circuits to Deny.
func (e *RiskEngine) Evaluate(ctx context.Context, ev *event.Event, snap *profile.Snapshot) *Evaluation {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ch := make(chan layerOutput, len(e.layers))
	for _, l := range e.layers {
		go func(l Layer) {
			layerStart := time.Now()
			score, err := l.Evaluate(ctx, ev, snap)
			metrics.ObserveLayerLatency(l.Name(), time.Since(layerStart))
			ch <- layerOutput{name: l.Name(), score: score, err: err}
		}(l)
	}

	frozenCh := make(chan struct{}, 1)
	if e.freezes != nil {
		go func() {
			frozen, err := e.freezes.Frozen(ctx, ev.AccountID)
			if err == nil && frozen {
				frozenCh <- struct{}{}
			}
		}()
	}

	eval := &Evaluation{}
	seen := make(map[string]bool, len(e.layers))
	remaining := len(e.layers)

	for remaining > 0 {
		select {
		case out := <-ch:
			seen[out.name] = true
			remaining--
			if out.err != nil {
				e.logger.Warn("layer failed",
					zap.String("layer", out.name),
					zap.Error(out.err),
				)
				eval.Failed = append(eval.Failed, out.name)
				continue
			}
			if out.score != nil {
				eval.Scores = append(eval.Scores, clamp(out.score))
			}
		case <-frozenCh:
			cancel()
			eval.Frozen = true
			eval.Elapsed = time.Since(start)
			return eval
		case <-ctx.Done():
			for _, l := range e.layers {
				if !seen[l.Name()] {
					eval.TimedOut = append(eval.TimedOut, l.Name())
					metrics.LayerTimeouts.WithLabelValues(l.Name()).Inc()
				}
			}
			e.logger.Warn("layer deadline exceeded, joining partial results",
				zap.Duration("timeout", e.timeout),
				zap.Strings("timed_out", eval.TimedOut),
			)
			remaining = 0
		}
	}

	eval.Elapsed = time.Since(start)
	return eval
}

// clamp forces score and confidence into [0,1]; a layer bug must not leak
// an out-of-range weight into the composite.
func clamp(s *LayerScore) *LayerScore {
	s.Score = clamp01(s.Score)
	s.Confidence = clamp01(s.Confidence)
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
