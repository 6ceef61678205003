package engine

import (
	"math"
	"testing"
)

func TestAggregate_WeightedComposite(t *testing.T) {
	eval := &Evaluation{Scores: []*LayerScore{
		{Layer: "geo_velocity", Score: 0.8, Confidence: 0.9},
		{Layer: "device_fingerprint", Score: 0.2, Confidence: 0.5},
	}}

	agg := Aggregate(eval, 7, DefaultAggregatorConfig())

	want := (0.8*0.9 + 0.2*0.5) / (0.9 + 0.5)
	if math.Abs(agg.Composite-want) > 1e-9 {
		t.Errorf("composite = %f, want %f", agg.Composite, want)
	}
	if agg.AllFailed {
		t.Error("AllFailed should be false with contributing layers")
	}
}

func TestAggregate_ZeroConfidenceLayerExcluded(t *testing.T) {
	withAbsent := &Evaluation{Scores: []*LayerScore{
		{Layer: "geo_velocity", Score: 0.8, Confidence: 0.9},
		{Layer: "phishing_context", Score: 0.5, Confidence: 0},
	}}
	without := &Evaluation{Scores: []*LayerScore{
		{Layer: "geo_velocity", Score: 0.8, Confidence: 0.9},
	}}

	a := Aggregate(withAbsent, 7, DefaultAggregatorConfig())
	b := Aggregate(without, 7, DefaultAggregatorConfig())
	if math.Abs(a.Composite-b.Composite) > 1e-9 {
		t.Errorf("zero-confidence layer moved composite: %f vs %f", a.Composite, b.Composite)
	}
}

func TestAggregate_MonotoneInLayerScore(t *testing.T) {
	base := func(geoScore float64) float64 {
		eval := &Evaluation{Scores: []*LayerScore{
			{Layer: "geo_velocity", Score: geoScore, Confidence: 0.9},
			{Layer: "device_fingerprint", Score: 0.3, Confidence: 0.8},
			{Layer: "bot_activity", Score: 0.1, Confidence: 0.7},
		}}
		return Aggregate(eval, 7, DefaultAggregatorConfig()).Composite
	}

	prev := base(0)
	for s := 0.1; s <= 1.0; s += 0.1 {
		cur := base(s)
		if cur < prev {
			t.Fatalf("composite decreased when a layer score rose: %f -> %f at score %f", prev, cur, s)
		}
		prev = cur
	}
}

func TestAggregate_CompositeBounded(t *testing.T) {
	eval := &Evaluation{Scores: []*LayerScore{
		{Layer: "a", Score: 1, Confidence: 1},
		{Layer: "b", Score: 1, Confidence: 0.1},
	}}
	agg := Aggregate(eval, 7, DefaultAggregatorConfig())
	if agg.Composite < 0 || agg.Composite > 1 {
		t.Errorf("composite %f out of [0,1]", agg.Composite)
	}
}

func TestAggregate_AllFailed(t *testing.T) {
	eval := &Evaluation{
		Failed:   []string{"geo_velocity", "bot_activity"},
		TimedOut: []string{"sim_intelligence"},
	}
	agg := Aggregate(eval, 7, DefaultAggregatorConfig())
	if !agg.AllFailed {
		t.Error("expected AllFailed with no scores")
	}
	if agg.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", agg.Confidence)
	}
}

func TestAggregate_OverrideHighestScoreWins(t *testing.T) {
	eval := &Evaluation{Scores: []*LayerScore{
		{Layer: "sim_intelligence", Score: 0.95, Confidence: 0.9,
			Override: &Override{Action: DecisionDeny, Reason: "sim_swap_device_mismatch"}},
		{Layer: "confirmed_fraud", Score: 1, Confidence: 0.9,
			Override: &Override{Action: DecisionDeny, Reason: "confirmed_fraud"}},
	}}
	agg := Aggregate(eval, 7, DefaultAggregatorConfig())
	if agg.Override == nil {
		t.Fatal("expected an override")
	}
	if agg.Override.Reason != "confirmed_fraud" {
		t.Errorf("override reason = %s, want the higher-scoring layer's", agg.Override.Reason)
	}
}

func TestAggregate_ReasonCodesOrderedByScore(t *testing.T) {
	eval := &Evaluation{
		Scores: []*LayerScore{
			{Layer: "device_fingerprint", Score: 0.6, Confidence: 0.8},
			{Layer: "geo_velocity", Score: 0.9, Confidence: 0.9},
			{Layer: "bot_activity", Score: 0.1, Confidence: 0.7}, // below floor
		},
		TimedOut: []string{"behavioral_biometrics"},
		Failed:   []string{"phishing_context"},
	}
	agg := Aggregate(eval, 7, DefaultAggregatorConfig())

	want := []string{
		"geo_velocity",
		"device_fingerprint",
		"layer_timeout:behavioral_biometrics",
		"layer_error:phishing_context",
	}
	if len(agg.ReasonCodes) != len(want) {
		t.Fatalf("reason codes = %v, want %v", agg.ReasonCodes, want)
	}
	for i := range want {
		if agg.ReasonCodes[i] != want[i] {
			t.Errorf("reason[%d] = %s, want %s", i, agg.ReasonCodes[i], want[i])
		}
	}
}

func TestAggregate_ConfidenceAgainstTotalLayers(t *testing.T) {
	eval := &Evaluation{Scores: []*LayerScore{
		{Layer: "a", Score: 0.1, Confidence: 0.9},
		{Layer: "b", Score: 0.1, Confidence: 0.9},
	}}
	agg := Aggregate(eval, 7, DefaultAggregatorConfig())
	want := (0.9 + 0.9) / 7
	if math.Abs(agg.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %f, want %f", agg.Confidence, want)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	eval := &Evaluation{Scores: []*LayerScore{
		{Layer: "a", Score: 0.4, Confidence: 0.5},
		{Layer: "b", Score: 0.7, Confidence: 0.9},
		{Layer: "c", Score: 0.2, Confidence: 0.3},
	}}
	first := Aggregate(eval, 7, DefaultAggregatorConfig())
	for i := 0; i < 10; i++ {
		again := Aggregate(eval, 7, DefaultAggregatorConfig())
		if again.Composite != first.Composite {
			t.Fatalf("composite changed across identical runs: %f vs %f", again.Composite, first.Composite)
		}
	}
}
