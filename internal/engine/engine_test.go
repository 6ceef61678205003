package engine

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

// stubLayer completes after delay with a fixed score, or an error.
type stubLayer struct {
	name  string
	score float64
	conf  float64
	delay time.Duration
	err   error
}

func (l *stubLayer) Name() string { return l.name }

func (l *stubLayer) Evaluate(ctx context.Context, _ *event.Event, _ *profile.Snapshot) (*LayerScore, error) {
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	return &LayerScore{Layer: l.name, Score: l.score, Confidence: l.conf}, nil
}

type stubFreezes struct {
	frozen bool
}

func (f *stubFreezes) Frozen(context.Context, string) (bool, error) {
	return f.frozen, nil
}

func testEvent() *event.Event {
	ev, _ := event.Ingest(event.Event{AccountID: "acct-1", Channel: event.ChannelMobile})
	return ev
}

func TestEvaluate_AllLayersComplete(t *testing.T) {
	eng := NewRiskEngine([]Layer{
		&stubLayer{name: "a", score: 0.2, conf: 0.9},
		&stubLayer{name: "b", score: 0.4, conf: 0.8},
		&stubLayer{name: "c", score: 0.6, conf: 0.7},
	}, 100*time.Millisecond, nil, zap.NewNop())

	eval := eng.Evaluate(context.Background(), testEvent(), &profile.Snapshot{})
	if len(eval.Scores) != 3 {
		t.Fatalf("got %d scores, want 3", len(eval.Scores))
	}
	if len(eval.TimedOut) != 0 || len(eval.Failed) != 0 {
		t.Errorf("unexpected degradation: timedout=%v failed=%v", eval.TimedOut, eval.Failed)
	}
}

func TestEvaluate_SlowLayerTimesOutOthersSurvive(t *testing.T) {
	eng := NewRiskEngine([]Layer{
		&stubLayer{name: "fast", score: 0.3, conf: 0.9},
		&stubLayer{name: "slow", score: 0.9, conf: 0.9, delay: 500 * time.Millisecond},
	}, 50*time.Millisecond, nil, zap.NewNop())

	eval := eng.Evaluate(context.Background(), testEvent(), &profile.Snapshot{})
	if len(eval.Scores) != 1 || eval.Scores[0].Layer != "fast" {
		t.Fatalf("expected only the fast layer, got %+v", eval.Scores)
	}
	if len(eval.TimedOut) != 1 || eval.TimedOut[0] != "slow" {
		t.Errorf("timed out = %v, want [slow]", eval.TimedOut)
	}
}

func TestEvaluate_FailedLayerRecorded(t *testing.T) {
	eng := NewRiskEngine([]Layer{
		&stubLayer{name: "ok", score: 0.1, conf: 0.9},
		&stubLayer{name: "broken", err: context.DeadlineExceeded},
	}, 100*time.Millisecond, nil, zap.NewNop())

	eval := eng.Evaluate(context.Background(), testEvent(), &profile.Snapshot{})
	if len(eval.Failed) != 1 || eval.Failed[0] != "broken" {
		t.Errorf("failed = %v, want [broken]", eval.Failed)
	}
	if len(eval.Scores) != 1 {
		t.Errorf("got %d scores, want 1", len(eval.Scores))
	}
}

func TestEvaluate_FrozenCancelsScoring(t *testing.T) {
	eng := NewRiskEngine([]Layer{
		&stubLayer{name: "slow", score: 0.1, conf: 0.9, delay: 5 * time.Second},
	}, 10*time.Second, &stubFreezes{frozen: true}, zap.NewNop())

	start := time.Now()
	eval := eng.Evaluate(context.Background(), testEvent(), &profile.Snapshot{})
	if !eval.Frozen {
		t.Fatal("expected Frozen")
	}
	if time.Since(start) > time.Second {
		t.Error("freeze did not short-circuit the slow layer")
	}
}

func TestEvaluate_ClampsOutOfRangeScores(t *testing.T) {
	eng := NewRiskEngine([]Layer{
		&stubLayer{name: "hot", score: 3.5, conf: -2},
	}, 100*time.Millisecond, nil, zap.NewNop())

	eval := eng.Evaluate(context.Background(), testEvent(), &profile.Snapshot{})
	if len(eval.Scores) != 1 {
		t.Fatal("expected one score")
	}
	s := eval.Scores[0]
	if s.Score != 1 || s.Confidence != 0 {
		t.Errorf("clamp failed: score=%f conf=%f", s.Score, s.Confidence)
	}
}
