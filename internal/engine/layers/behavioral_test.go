package layers

import (
	"context"
	"testing"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

func enrolledSnapshot(samples int) *profile.Snapshot {
	p := profile.NewProfile("acct-1")
	for i := 0; i < samples; i++ {
		f := event.EnrolledFeatures()
		// Small spread so variance is nonzero.
		f[0] += float64(i%5) - 2
		f[1] += float64(i%3) - 1
		p.Baseline.Observe(f)
	}
	store := profile.NewMemoryStore()
	_ = store.Save(context.Background(), p)
	snap, _ := store.Snapshot(context.Background(), "acct-1")
	return snap
}

func TestBehavioral_ColdBaselineNeutral(t *testing.T) {
	l := NewBehavioralLayer(5)
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())

	score, err := l.Evaluate(context.Background(), ev, &profile.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if score.Score != 0.5 {
		t.Errorf("cold baseline score = %f, want 0.5", score.Score)
	}
	if score.Confidence > 0.2 {
		t.Errorf("cold baseline confidence = %f, want low", score.Confidence)
	}
}

func TestBehavioral_MatchingSampleScoresLow(t *testing.T) {
	l := NewBehavioralLayer(5)
	snap := enrolledSnapshot(20)
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())

	score, err := l.Evaluate(context.Background(), ev, snap)
	if err != nil {
		t.Fatal(err)
	}
	if score.Score >= 0.5 {
		t.Errorf("near-baseline sample scored %f, want < 0.5", score.Score)
	}
}

func TestBehavioral_DivergentSampleScoresHigher(t *testing.T) {
	l := NewBehavioralLayer(5)
	snap := enrolledSnapshot(20)

	near := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())
	far := event.Synthesize(event.MultiVector, "acct-1", 0, testTime())

	nearScore, _ := l.Evaluate(context.Background(), near, snap)
	farScore, _ := l.Evaluate(context.Background(), far, snap)
	if farScore.Score <= nearScore.Score {
		t.Errorf("divergent sample %f not above near sample %f", farScore.Score, nearScore.Score)
	}
}

func TestBehavioral_NoSampleLowConfidence(t *testing.T) {
	l := NewBehavioralLayer(5)
	ev, _ := event.Ingest(event.Event{AccountID: "acct-1", Channel: event.ChannelMobile})

	score, err := l.Evaluate(context.Background(), ev, enrolledSnapshot(20))
	if err != nil {
		t.Fatal(err)
	}
	if score.Confidence != 0.1 {
		t.Errorf("missing sample confidence = %f, want 0.1", score.Confidence)
	}
}

func TestBehavioral_DimensionMismatchNeutral(t *testing.T) {
	l := NewBehavioralLayer(5)
	snap := enrolledSnapshot(20)
	ev, _ := event.Ingest(event.Event{
		AccountID:  "acct-1",
		Channel:    event.ChannelMobile,
		Behavioral: event.BehavioralSample{Features: []float64{1, 2}}, // wrong dimension
	})

	score, err := l.Evaluate(context.Background(), ev, snap)
	if err != nil {
		t.Fatal(err)
	}
	if score.Score != 0.5 {
		t.Errorf("dimension mismatch score = %f, want neutral 0.5", score.Score)
	}
}
