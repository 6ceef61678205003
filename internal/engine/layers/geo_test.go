package layers

import (
	"context"
	"testing"
	"time"

	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/profile"
)

func TestGeo_NoHistoryNeutral(t *testing.T) {
	l := NewGeoVelocityLayer(900)
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())

	score, err := l.Evaluate(context.Background(), ev, &profile.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if score.Score != 0.5 || score.Confidence != 0.1 {
		t.Errorf("no-history = %f/%f, want 0.5/0.1", score.Score, score.Confidence)
	}
}

func TestGeo_SameCityScoresNearZero(t *testing.T) {
	l := NewGeoVelocityLayer(900)
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())
	// A few km from the trail point, an hour later.
	ev.Geo.Lat += 0.02

	score, _ := l.Evaluate(context.Background(), ev, enrolled("acct-1"))
	if score.Score > 0.05 {
		t.Errorf("local movement scored %f, want ~0", score.Score)
	}
}

func TestGeo_ImpossibleTravelScoresHigh(t *testing.T) {
	// Bangalore trail point one hour ago, event from New York now:
	// far beyond any transport ceiling.
	l := NewGeoVelocityLayer(900)
	ev := event.Synthesize(event.ImpossibleTravel, "acct-1", 0, testTime())

	score, _ := l.Evaluate(context.Background(), ev, enrolled("acct-1"))
	if score.Score <= 0.9 {
		t.Errorf("impossible travel scored %f, want > 0.9", score.Score)
	}
	found := false
	for _, e := range score.Evidence {
		if e == "impossible_travel" {
			found = true
		}
	}
	if !found {
		t.Errorf("evidence = %v, want impossible_travel", score.Evidence)
	}
}

func TestGeo_AccuracyBandAbsorbsCoarseFixes(t *testing.T) {
	l := NewGeoVelocityLayer(900)
	snap := enrolled("acct-1")
	snap.GeoTrail[0].AccuracyKM = 50 // cell-tower grade fix

	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())
	ev.Geo.Lat += 0.3 // ~33 km, inside the combined accuracy band
	ev.Geo.AccuracyKM = 10

	score, _ := l.Evaluate(context.Background(), ev, snap)
	if score.Score != 0 {
		t.Errorf("movement inside accuracy band scored %f, want 0", score.Score)
	}
}

func TestGeo_ClockSkewFloored(t *testing.T) {
	l := NewGeoVelocityLayer(900)
	snap := enrolled("acct-1")
	// Trail point stamped AFTER the event: negative elapsed must not
	// manufacture infinite speed.
	snap.GeoTrail[0].At = testTime().Add(time.Minute)

	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())
	ev.Geo.Lat += 0.02

	score, _ := l.Evaluate(context.Background(), ev, snap)
	if score.Score > 0.1 {
		t.Errorf("skewed timestamps scored %f, want near 0 with the floored delta", score.Score)
	}
}

func TestGeo_ScoreHalfAtCeiling(t *testing.T) {
	l := NewGeoVelocityLayer(900)
	snap := enrolled("acct-1")
	snap.GeoTrail[0].AccuracyKM = 0

	// 900 km in exactly one hour: ratio 1, score r²/(r²+1) = 0.5.
	ev := event.Synthesize(event.NormalOperation, "acct-1", 0, testTime())
	ev.Geo.AccuracyKM = 0
	ev.Geo.Lat = snap.GeoTrail[0].Lat + 900.0/111.0 // ~1 degree lat = 111 km

	score, _ := l.Evaluate(context.Background(), ev, snap)
	if score.Score < 0.4 || score.Score > 0.6 {
		t.Errorf("ceiling-speed score = %f, want ~0.5", score.Score)
	}
}
