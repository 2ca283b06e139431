package cursor

import (
	"math"
	"testing"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
)

func eventsFile(evs []events.InputEvent) *events.File {
	return &events.File{
		SchemaVersion: events.SchemaVersion,
		RecordingID:   "test",
		ScreenWidth:   1920,
		ScreenHeight:  1080,
		ScaleFactor:   1.0,
		Events:        evs,
	}
}

func TestSmoothingFactorZeroIsIdentity(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeMove, TS: 0, X: 0, Y: 0},
		{Type: events.TypeMove, TS: 10, X: 192, Y: 108},
		{Type: events.TypeMove, TS: 20, X: 384, Y: 216},
	})

	p := New(f, 0)
	want := []struct{ x, y float64 }{{0, 0}, {0.1, 0.1}, {0.2, 0.2}}
	for i, s := range p.Samples() {
		if math.Abs(s.X-want[i].x) > 1e-9 || math.Abs(s.Y-want[i].y) > 1e-9 {
			t.Errorf("sample %d = (%f,%f), want (%f,%f)", i, s.X, s.Y, want[i].x, want[i].y)
		}
	}
}

func TestSmoothingFactorOneUsesAlphaTenth(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeMove, TS: 0, X: 0, Y: 0},
		{Type: events.TypeMove, TS: 10, X: 1920, Y: 0},
	})

	p := New(f, 1)
	// out[1] = 0 + 0.1*(1.0 - 0) = 0.1 exactly.
	got := p.Samples()[1].X
	if math.Abs(got-0.1) > 1e-12 {
		t.Errorf("alpha != 0.1: sample x = %f", got)
	}
}

func TestSmoothingKeepsClickCoordinates(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeMove, TS: 0, X: 0, Y: 0},
		{Type: events.TypeMove, TS: 20, X: 600, Y: 400},
		{Type: events.TypeClick, TS: 40, X: 960, Y: 540, Button: events.ButtonLeft},
		{Type: events.TypeMove, TS: 60, X: 1000, Y: 560},
	})

	p := New(f, 1)
	var click *Sample
	for i := range p.Samples() {
		if p.Samples()[i].IsClick {
			click = &p.Samples()[i]
		}
	}
	if click == nil {
		t.Fatal("missing click sample")
	}
	if math.Abs(click.X-0.5) > 1e-9 || math.Abs(click.Y-0.5) > 1e-9 {
		t.Errorf("click drifted to (%f,%f), want (0.5,0.5)", click.X, click.Y)
	}
}

func TestMonotonicTimestampsAfterDedupe(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeMove, TS: 10, X: 0, Y: 0},
		{Type: events.TypeClick, TS: 10, X: 100, Y: 100, Button: events.ButtonLeft},
		{Type: events.TypeMove, TS: 20, X: 200, Y: 200},
	})

	p := New(f, 0.5)
	last := int64(math.MinInt64)
	for _, s := range p.Samples() {
		if s.TS <= last {
			t.Fatalf("timestamps not strictly increasing: %d after %d", s.TS, last)
		}
		last = s.TS
	}
	// The click-flagged sample must win the duplicate slot.
	if !p.Samples()[0].IsClick {
		t.Error("duplicate collapse dropped the click flag")
	}
}

func TestInterpolationAndClamping(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeMove, TS: 100, X: 0, Y: 0},
		{Type: events.TypeMove, TS: 200, X: 1920, Y: 1080},
	})
	p := New(f, 0)

	x, y := p.At(150)
	if math.Abs(x-0.5) > 1e-9 || math.Abs(y-0.5) > 1e-9 {
		t.Errorf("midpoint = (%f,%f), want (0.5,0.5)", x, y)
	}

	// Before the first sample: clamp to it.
	x, _ = p.At(0)
	if x != 0 {
		t.Errorf("pre-range x = %f, want 0", x)
	}
	// After the last sample: clamp to it.
	x, _ = p.At(10_000)
	if x != 1 {
		t.Errorf("post-range x = %f, want 1", x)
	}
}

func TestClickPulseShape(t *testing.T) {
	f := eventsFile([]events.InputEvent{
		{Type: events.TypeClick, TS: 1000, X: 500, Y: 500, Button: events.ButtonLeft},
	})
	p := New(f, 0)

	tests := []struct {
		ts   int64
		want float64
	}{
		{999, 1.0},        // before the click
		{1000, 1.0},       // dt=0, pulse just starting
		{1065, 0.82},      // bottom of the down phase
		{1150, 1.0},       // fully recovered
		{1500, 1.0},       // long after
	}
	for _, tt := range tests {
		if got := p.PulseScale(tt.ts); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PulseScale(%d) = %f, want %f", tt.ts, got, tt.want)
		}
	}

	// Continuity around the down/up boundary.
	left := p.PulseScale(1064)
	right := p.PulseScale(1066)
	if math.Abs(left-right) > 0.02 {
		t.Errorf("pulse discontinuity at boundary: %f vs %f", left, right)
	}

	// Mid-down phase is strictly between the extremes.
	mid := p.PulseScale(1030)
	if mid <= 0.82 || mid >= 1.0 {
		t.Errorf("mid-down pulse %f outside (0.82, 1.0)", mid)
	}
}

func TestEmptyStreamFallsBackToCenter(t *testing.T) {
	p := New(eventsFile(nil), 0.5)
	x, y := p.At(100)
	if x != 0.5 || y != 0.5 {
		t.Errorf("empty stream cursor = (%f,%f), want screen center", x, y)
	}
	if p.PulseScale(100) != 1.0 {
		t.Error("empty stream must not pulse")
	}
}
