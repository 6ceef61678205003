package profile

import (
	"math"
	"testing"
	"time"
)

func TestBaseline_WelfordMeanAndVariance(t *testing.T) {
	var b Baseline
	samples := [][]float64{
		{2, 10},
		{4, 20},
		{6, 30},
	}
	for _, s := range samples {
		b.Observe(s)
	}

	if b.Count != 3 {
		t.Fatalf("count = %d, want 3", b.Count)
	}
	if math.Abs(b.Mean[0]-4) > 1e-9 || math.Abs(b.Mean[1]-20) > 1e-9 {
		t.Errorf("mean = %v, want [4 20]", b.Mean)
	}
	variance := b.Variance()
	// Sample variance of {2,4,6} is 4, of {10,20,30} is 100.
	if math.Abs(variance[0]-4) > 1e-9 || math.Abs(variance[1]-100) > 1e-9 {
		t.Errorf("variance = %v, want [4 100]", variance)
	}
}

func TestBaseline_Cold(t *testing.T) {
	var b Baseline
	if !b.Cold(5) {
		t.Error("empty baseline must be cold")
	}
	for i := 0; i < 4; i++ {
		b.Observe([]float64{1})
	}
	if !b.Cold(5) {
		t.Error("4 of 5 samples must still be cold")
	}
	b.Observe([]float64{1})
	if b.Cold(5) {
		t.Error("5 samples must be warm")
	}

	var nilBaseline *Baseline
	if !nilBaseline.Cold(5) {
		t.Error("nil baseline must be cold")
	}
}

func TestBaseline_DimensionChangeResets(t *testing.T) {
	var b Baseline
	b.Observe([]float64{1, 2, 3})
	b.Observe([]float64{1, 2, 3})

	b.Observe([]float64{5, 5})
	if b.Count != 1 {
		t.Errorf("count after reset = %d, want 1", b.Count)
	}
	if len(b.Mean) != 2 || b.Mean[0] != 5 {
		t.Errorf("mean after reset = %v", b.Mean)
	}
}

func TestBaseline_VarianceNeedsTwoSamples(t *testing.T) {
	var b Baseline
	b.Observe([]float64{1})
	if b.Variance() != nil {
		t.Error("variance with one sample must be nil")
	}
}

func TestBaseline_DistanceZeroAtCentroid(t *testing.T) {
	var b Baseline
	for _, s := range [][]float64{{1, 10}, {3, 20}, {5, 30}} {
		b.Observe(s)
	}
	if d := b.Distance([]float64{3, 20}); d > 1e-9 {
		t.Errorf("distance at centroid = %f, want 0", d)
	}
	near := b.Distance([]float64{3.5, 21})
	far := b.Distance([]float64{30, 200})
	if near >= far {
		t.Errorf("near %f >= far %f", near, far)
	}
}

func TestBaseline_DistanceMismatchedDimensions(t *testing.T) {
	var b Baseline
	b.Observe([]float64{1, 2})
	if d := b.Distance([]float64{1}); !math.IsNaN(d) {
		t.Errorf("mismatched distance = %f, want NaN", d)
	}
}

func TestBaseline_DistanceFloorsNearZeroVariance(t *testing.T) {
	var b Baseline
	// Identical samples leave variance at zero; the floor keeps the
	// distance finite.
	for i := 0; i < 5; i++ {
		b.Observe([]float64{10})
	}
	d := b.Distance([]float64{11})
	if math.IsInf(d, 0) || math.IsNaN(d) {
		t.Fatalf("distance = %f, want finite", d)
	}
	// Floor sigma is 10% of the mean, so one unit off is one sigma.
	if math.Abs(d-1) > 1e-9 {
		t.Errorf("distance = %f, want 1", d)
	}
}

func TestSnapshot_DeviceLookup(t *testing.T) {
	s := &Snapshot{Devices: []DeviceRecord{
		{DeviceID: "dev-a"},
		{DeviceID: "dev-b"},
	}}
	if s.Device("dev-b") == nil {
		t.Error("known device not found")
	}
	if s.Device("dev-c") != nil {
		t.Error("unknown device found")
	}
}

func TestSnapshot_CurrentSIMSkipsRetired(t *testing.T) {
	s := &Snapshot{SIMHistory: []SIMRecord{
		{IdentityHash: "old", Status: SIMActive},
		{IdentityHash: "new", Status: SIMRetired},
	}}
	cur := s.CurrentSIM()
	if cur == nil || cur.IdentityHash != "old" {
		t.Errorf("current SIM = %+v, want the active record", cur)
	}

	empty := &Snapshot{}
	if empty.CurrentSIM() != nil {
		t.Error("empty history must have no current SIM")
	}
}

func TestSnapshot_LastGeo(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := &Snapshot{GeoTrail: []GeoPoint{
		{Lat: 1, At: at},
		{Lat: 2, At: at.Add(time.Hour)},
	}}
	last := s.LastGeo()
	if last == nil || last.Lat != 2 {
		t.Errorf("last geo = %+v, want the newest point", last)
	}
	if (&Snapshot{}).LastGeo() != nil {
		t.Error("empty trail must have no last point")
	}
}
