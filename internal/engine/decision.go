package engine

import "fmt"

// State tracks a decision flow through its lifecycle. Transitions are
// strictly forward; Alerting is skipped for Allow outcomes.
type State int

const (
	StateIdle State = iota
	StateScoring
	StateAggregating
	StateDecided
	StateAlerting
	StateTerminal
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScoring:
		return "scoring"
	case StateAggregating:
		return "aggregating"
	case StateDecided:
		return "decided"
	case StateAlerting:
		return "alerting"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

var validTransitions = map[State][]State{
	StateIdle:        {StateScoring},
	StateScoring:     {StateAggregating, StateDecided}, // frozen short-circuit skips aggregation
	StateAggregating: {StateDecided},
	StateDecided:     {StateAlerting, StateTerminal},
	StateAlerting:    {StateTerminal},
}

// flow enforces the decision state machine.
type flow struct {
	state State
}

func (f *flow) to(next State) error {
	for _, s := range validTransitions[f.state] {
		if s == next {
			f.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid state transition %s -> %s", f.state, next)
}

// Decider maps an aggregate result to the final decision.
type Decider struct {
	cfg AggregatorConfig
}

// NewDecider creates a Decider with the given calibration.
func NewDecider(cfg AggregatorConfig) *Decider {
	return &Decider{cfg: cfg}
}

// Decide applies the decision rule in order:
//  1. A hard override determines the outcome unconditionally.
//  2. Total layer failure fails closed to Challenge, never Allow.
//  3. Otherwise the composite is cut at the two thresholds.
//
// Pure function of the aggregate — no state is read here, so an identical
// (Event, Snapshot) replay yields an identical decision.
func (d *Decider) Decide(agg AggregateResult) (Decision, []string) {
	reasons := agg.ReasonCodes

	if agg.Override != nil {
		reasons = prepend(reasons, agg.Override.Reason)
		return agg.Override.Action, reasons
	}
	if agg.AllFailed {
		return DecisionChallenge, prepend(reasons, ReasonAllLayersFailed)
	}

	switch {
	case agg.Composite < d.cfg.AllowBelow:
		return DecisionAllow, reasons
	case agg.Composite < d.cfg.DenyAt:
		return DecisionChallenge, reasons
	default:
		return DecisionDeny, reasons
	}
}

// prepend puts code first unless it is already listed.
func prepend(reasons []string, code string) []string {
	for _, r := range reasons {
		if r == code {
			return reasons
		}
	}
	return append([]string{code}, reasons...)
}
