package engine

// Decision is the final enforcement outcome for an event.
type Decision int

const (
	DecisionAllow Decision = iota + 1
	DecisionChallenge
	DecisionDeny
)

// String returns the lowercase decision name.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionChallenge:
		return "challenge"
	case DecisionDeny:
		return "deny"
	default:
		return "unspecified"
	}
}

// Override is a layer-level finding strong enough to force the final
// decision regardless of the composite score.
type Override struct {
	Action Decision
	Reason string
}

// LayerScore is the output of a single signal layer. Score and Confidence
// both lie in [0,1]: score 0 is benign, 1 is maximal suspicion; confidence
// 0 removes the layer from the weighted composite entirely.
type LayerScore struct {
	Layer      string
	Score      float64
	Confidence float64
	Evidence   []string
	Override   *Override
}

// LayerResult is the per-layer slice of a decision's breakdown.
type LayerResult struct {
	Layer      string  `json:"layer"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// RiskDecision is the engine's answer for one event.
type RiskDecision struct {
	EventID     string        `json:"event_id"`
	AccountID   string        `json:"account_id"`
	Decision    Decision      `json:"-"`
	Composite   float64       `json:"composite_score"`
	Confidence  float64       `json:"confidence"`
	ReasonCodes []string      `json:"reason_codes"`
	Breakdown   []LayerResult `json:"layer_breakdown"`
	LatencyMS   float64       `json:"latency_ms"`
}

// Reason codes not produced by individual layers.
const (
	ReasonAccountFrozen   = "account_frozen"
	ReasonAllLayersFailed = "all_layers_failed"
	ReasonProfileDegraded = "profile_store_degraded"
	reasonTimeoutPrefix   = "layer_timeout:"
	reasonErrorPrefix     = "layer_error:"
)
