package engine

import "sort"

// AggregatorConfig holds the calibration parameters for composing layer
// scores. The thresholds are tuning targets, not constants; deployments
// override them from config.
type AggregatorConfig struct {
	// AllowBelow (T1): composite below this allows.
	AllowBelow float64
	// DenyAt (T2): composite at or above this denies; between the two
	// thresholds the session is challenged.
	DenyAt float64
	// ContributingFloor: layers scoring at or above this appear in the
	// reason codes.
	ContributingFloor float64
}

// DefaultAggregatorConfig returns the shipped calibration defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		AllowBelow:        0.30,
		DenyAt:            0.60,
		ContributingFloor: 0.50,
	}
}

// AggregateResult is the composed view of all layer outputs.
type AggregateResult struct {
	// Composite is the confidence-weighted combination of layer scores.
	Composite float64
	// Confidence sums reported layer confidences against the full layer
	// count, so missing layers depress it without double-penalizing the
	// composite itself.
	Confidence float64
	// Override is the first hard override encountered (layers are
	// inspected in descending score order for determinism), or nil.
	Override *Override
	// ReasonCodes lists contributing layers by descending score, then
	// degradation markers for timed-out and failed layers.
	ReasonCodes []string
	// AllFailed is set when no layer contributed any weight; the decision
	// must fail closed to Challenge.
	AllFailed bool
}

// Aggregate joins an evaluation into one composite score. Timed-out and
// failed layers are excluded from the weight sum rather than scored, and
// are surfaced as degraded-confidence reason codes. A hard override never
// suppresses the composite computation — reason codes stay complete.
func Aggregate(eval *Evaluation, totalLayers int, cfg AggregatorConfig) AggregateResult {
	scores := make([]*LayerScore, len(eval.Scores))
	copy(scores, eval.Scores)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	var weighted, weight, confSum float64
	var override *Override
	for _, s := range scores {
		weighted += s.Score * s.Confidence
		weight += s.Confidence
		confSum += s.Confidence
		if override == nil && s.Override != nil {
			override = s.Override
		}
	}

	res := AggregateResult{Override: override}
	if weight == 0 {
		res.AllFailed = true
	} else {
		res.Composite = weighted / weight
	}
	if totalLayers > 0 {
		res.Confidence = clamp01(confSum / float64(totalLayers))
	}

	for _, s := range scores {
		if s.Score >= cfg.ContributingFloor {
			res.ReasonCodes = append(res.ReasonCodes, s.Layer)
		}
	}
	for _, name := range eval.TimedOut {
		res.ReasonCodes = append(res.ReasonCodes, reasonTimeoutPrefix+name)
	}
	for _, name := range eval.Failed {
		res.ReasonCodes = append(res.ReasonCodes, reasonErrorPrefix+name)
	}

	return res
}
