package layers

import (
	"context"
	"testing"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

func botEvent(deltas []float64) *event.Event {
	ev, _ := event.Ingest(event.Event{
		AccountID:  "acct-1",
		Channel:    event.ChannelMobile,
		Behavioral: event.BehavioralSample{ActionDeltasMS: deltas},
	})
	return ev
}

func TestBot_MachineRegularTimingScoresHigh(t *testing.T) {
	l := NewBotActivityLayer()
	ev := event.Synthesize(event.BotAttack, "acct-1", 0, testTime())

	score, err := l.Evaluate(context.Background(), ev, &profile.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	// Identical 50ms deltas: cv 0, score (floor-0)/floor = 1.
	if score.Score != 1 {
		t.Errorf("constant timing scored %f, want 1", score.Score)
	}
	if len(score.Evidence) == 0 || score.Evidence[0] != "machine_regular_timing" {
		t.Errorf("evidence = %v", score.Evidence)
	}
}

func TestBot_HumanTimingScoresZero(t *testing.T) {
	l := NewBotActivityLayer()
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())

	score, _ := l.Evaluate(context.Background(), ev, &profile.Snapshot{})
	if score.Score != 0 {
		t.Errorf("human-irregular timing scored %f, want 0", score.Score)
	}
}

func TestBot_TinySampleLowConfidence(t *testing.T) {
	l := NewBotActivityLayer()
	score, _ := l.Evaluate(context.Background(), botEvent([]float64{50, 50, 50}), &profile.Snapshot{})
	if score.Score != 0.5 {
		t.Errorf("3-sample score = %f, want neutral 0.5", score.Score)
	}
	if score.Confidence != 0.15 {
		t.Errorf("3-sample confidence = %f, want 0.15", score.Confidence)
	}
}

func TestBot_ConfidenceScalesWithSampleCount(t *testing.T) {
	l := NewBotActivityLayer()
	small, _ := l.Evaluate(context.Background(), botEvent([]float64{50, 51, 49, 50, 52, 48}), &profile.Snapshot{})
	filled := make([]float64, 24)
	for i := range filled {
		filled[i] = 50
	}
	big, _ := l.Evaluate(context.Background(), botEvent(filled), &profile.Snapshot{})
	if big.Confidence <= small.Confidence {
		t.Errorf("confidence did not grow with sample count: %f vs %f", big.Confidence, small.Confidence)
	}
}

func TestBot_DegenerateZeroMean(t *testing.T) {
	l := NewBotActivityLayer()
	score, _ := l.Evaluate(context.Background(), botEvent([]float64{0, 0, 0, 0, 0}), &profile.Snapshot{})
	if score.Score != 0.5 || score.Confidence != 0.1 {
		t.Errorf("zero-mean sample = %f/%f, want 0.5/0.1", score.Score, score.Confidence)
	}
}
