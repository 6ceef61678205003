package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/metrics"
	"github.com/banksecure/vigil/internal/profile"
)

// profileFetchTimeout bounds the snapshot read so a slow store cannot eat
// the whole latency budget before scoring even starts.
const profileFetchTimeout = 20 * time.Millisecond

// Pipeline orchestrates one event end to end: profile snapshot, parallel
// scoring, aggregation, decision. It owns the decision state machine and
// the last-known snapshot cache used when the profile store degrades.
type Pipeline struct {
	engine *RiskEngine
	aggCfg AggregatorConfig
	store  profile.Store
	logger *zap.Logger

	// lastKnown caches the most recent good snapshot per account so a
	// store outage degrades to stale data instead of a forced Challenge.
	lastKnown sync.Map // map[string]*profile.Snapshot
}

// NewPipeline wires the scoring engine, calibration and profile store.
func NewPipeline(eng *RiskEngine, aggCfg AggregatorConfig, store profile.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		engine: eng,
		aggCfg: aggCfg,
		store:  store,
		logger: logger,
	}
}

// Decide evaluates one ingested event with the default calibration. It
// always returns a decision with a latency figure; internal failures
// degrade the outcome, they do not surface as errors. The only error path
// left to callers is a programming bug in the state machine itself.
func (p *Pipeline) Decide(ctx context.Context, ev *event.Event) (*RiskDecision, error) {
	return p.DecideWith(ctx, ev, p.aggCfg)
}

// DecideWith evaluates one event with an explicit calibration, used when
// the tenant carries threshold overrides.
func (p *Pipeline) DecideWith(ctx context.Context, ev *event.Event, aggCfg AggregatorConfig) (*RiskDecision, error) {
	start := time.Now()
	f := &flow{}

	if err := f.to(StateScoring); err != nil {
		return nil, err
	}

	snap, degraded := p.snapshot(ctx, ev.AccountID)
	if snap != nil && snap.Frozen {
		// Frozen before scoring even starts.
		return p.finish(f, ev, frozenDecision(ev), start)
	}
	if snap == nil && degraded {
		// Store down and nothing cached: fail closed.
		dec := &RiskDecision{
			EventID:     ev.ID,
			AccountID:   ev.AccountID,
			Decision:    DecisionChallenge,
			ReasonCodes: []string{ReasonProfileDegraded},
		}
		if err := f.to(StateDecided); err != nil {
			return nil, err
		}
		return p.finish(f, ev, dec, start)
	}
	if snap == nil {
		// New account: score against a cold snapshot.
		snap = &profile.Snapshot{AccountID: ev.AccountID}
	}

	eval := p.engine.Evaluate(ctx, ev, snap)
	if eval.Frozen {
		return p.finish(f, ev, frozenDecision(ev), start)
	}

	if err := f.to(StateAggregating); err != nil {
		return nil, err
	}
	agg := Aggregate(eval, len(p.engine.layers), aggCfg)
	if degraded {
		agg.ReasonCodes = append(agg.ReasonCodes, ReasonProfileDegraded)
	}

	if err := f.to(StateDecided); err != nil {
		return nil, err
	}
	outcome, reasons := NewDecider(aggCfg).Decide(agg)

	dec := &RiskDecision{
		EventID:     ev.ID,
		AccountID:   ev.AccountID,
		Decision:    outcome,
		Composite:   agg.Composite,
		Confidence:  agg.Confidence,
		ReasonCodes: reasons,
		Breakdown:   breakdown(eval.Scores),
	}
	return p.finish(f, ev, dec, start)
}

// finish stamps latency, records metrics and drives the flow to Terminal.
func (p *Pipeline) finish(f *flow, ev *event.Event, dec *RiskDecision, start time.Time) (*RiskDecision, error) {
	if f.state == StateScoring {
		// Frozen short-circuit arrives here still in Scoring.
		if err := f.to(StateDecided); err != nil {
			return nil, err
		}
	}
	if dec.Decision != DecisionAllow {
		if err := f.to(StateAlerting); err != nil {
			return nil, err
		}
	}
	if err := f.to(StateTerminal); err != nil {
		return nil, err
	}

	dec.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)
	metrics.DecisionsTotal.WithLabelValues(dec.Decision.String()).Inc()
	metrics.DecisionLatency.Observe(time.Since(start).Seconds())

	p.logger.Info("risk decision",
		zap.String("event_id", ev.ID),
		zap.String("account_id", ev.AccountID),
		zap.String("decision", dec.Decision.String()),
		zap.Float64("composite", dec.Composite),
		zap.Float64("latency_ms", dec.LatencyMS),
	)
	return dec, nil
}

// snapshot fetches the profile with a bounded timeout. Returns the
// snapshot (nil for a brand-new account) and whether the read degraded to
// cache or nothing.
func (p *Pipeline) snapshot(ctx context.Context, accountID string) (*profile.Snapshot, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, profileFetchTimeout)
	defer cancel()

	snap, err := p.store.Snapshot(fetchCtx, accountID)
	if err == nil {
		p.lastKnown.Store(accountID, snap)
		return snap, false
	}
	if errors.Is(err, profile.ErrNotFound) {
		return nil, false
	}

	p.logger.Warn("profile store unavailable",
		zap.String("account_id", accountID),
		zap.Error(err),
	)
	if cached, ok := p.lastKnown.Load(accountID); ok {
		return cached.(*profile.Snapshot), true
	}
	return nil, true
}

func frozenDecision(ev *event.Event) *RiskDecision {
	return &RiskDecision{
		EventID:     ev.ID,
		AccountID:   ev.AccountID,
		Decision:    DecisionDeny,
		Composite:   1,
		Confidence:  1,
		ReasonCodes: []string{ReasonAccountFrozen},
	}
}

func breakdown(scores []*LayerScore) []LayerResult {
	out := make([]LayerResult, 0, len(scores))
	for _, s := range scores {
		out = append(out, LayerResult{
			Layer:      s.Layer,
			Score:      s.Score,
			Confidence: s.Confidence,
		})
	}
	return out
}
