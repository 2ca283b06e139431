package camera

import (
	"math"
	"testing"

	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

func zoomedSeg(id string, start, end int64) project.ZoomSegment {
	return project.ZoomSegment{
		ID:          id,
		StartTS:     start,
		EndTS:       end,
		InitialRect: geometry.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
		Spring:      project.DefaultSpring(),
		Mode:        project.ModeFixed,
		Trigger:     project.TriggerManual,
	}
}

func TestTrackCoversFullDuration(t *testing.T) {
	track := BuildTrack([]project.ZoomSegment{zoomedSeg("a", 1000, 3000)}, 5000, 60)

	samples := track.Samples()
	if samples[0].TS != 0 {
		t.Errorf("first sample at %d, want 0", samples[0].TS)
	}
	if last := samples[len(samples)-1]; last.TS != 5000 {
		t.Errorf("last sample at %d, want 5000", last.TS)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].TS <= samples[i-1].TS {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestTrackSamplesRespectRectInvariants(t *testing.T) {
	track := BuildTrack([]project.ZoomSegment{zoomedSeg("a", 500, 2500)}, 4000, 60)
	for _, s := range track.Samples() {
		r := s.Rect
		if r.W < geometry.MinRectSize-1e-9 || r.H < geometry.MinRectSize-1e-9 {
			t.Fatalf("sample at %d below min size: %+v", s.TS, r)
		}
		if r.Right() > 1+1e-6 || r.Bottom() > 1+1e-6 {
			t.Fatalf("sample at %d outside unit square: %+v", s.TS, r)
		}
	}
}

func TestSpringConvergesToFixedTarget(t *testing.T) {
	// A long fixed segment: the camera must settle on the initial rect.
	seg := zoomedSeg("a", 0, 8000)
	track := BuildTrack([]project.ZoomSegment{seg}, 8000, 60)

	settled := track.SampleAt(7500)
	if math.Abs(settled.X-0.25) > 0.01 || math.Abs(settled.W-0.5) > 0.01 {
		t.Errorf("camera did not settle on target: %+v", settled)
	}
}

func TestCameraRelaxesToFullFrameAfterSegment(t *testing.T) {
	track := BuildTrack([]project.ZoomSegment{zoomedSeg("a", 500, 2000)}, 8000, 60)

	tail := track.SampleAt(7500)
	if math.Abs(tail.W-1.0) > 0.01 || math.Abs(tail.X) > 0.01 {
		t.Errorf("camera did not return to full frame: %+v", tail)
	}
}

func TestTargetPointStepSemantics(t *testing.T) {
	seg := zoomedSeg("a", 0, 4000)
	seg.Mode = project.ModeFollowCursor
	seg.TargetPoints = []project.TargetPoint{
		{TS: 0, Rect: geometry.Rect{X: 0.0, Y: 0.25, W: 0.5, H: 0.5}},
		{TS: 2000, Rect: geometry.Rect{X: 0.5, Y: 0.25, W: 0.5, H: 0.5}},
	}
	track := BuildTrack([]project.ZoomSegment{seg}, 4000, 60)

	// Just before the second point the camera still pulls toward the
	// first; well after, it has crossed toward the second.
	before := track.SampleAt(1900)
	after := track.SampleAt(3800)
	if after.X <= before.X {
		t.Errorf("camera ignored the stepped target: x %f -> %f", before.X, after.X)
	}
	if math.Abs(after.X-0.5) > 0.05 {
		t.Errorf("camera did not reach the second target: %+v", after)
	}
}

func TestVelocityCarriesAcrossSegments(t *testing.T) {
	// Two adjacent segments; at the boundary the track must be smooth,
	// not restarted. Compare the step deltas right around the boundary:
	// a velocity reset would show as a discontinuity spike.
	a := zoomedSeg("a", 0, 2000)
	b := zoomedSeg("b", 2200, 4200)
	b.InitialRect = geometry.Rect{X: 0.4, Y: 0.4, W: 0.5, H: 0.5}
	track := BuildTrack([]project.ZoomSegment{a, b}, 6000, 60)

	var prev geometry.Rect
	first := true
	maxJump := 0.0
	for _, s := range track.Samples() {
		if s.TS < 2100 || s.TS > 2400 {
			continue
		}
		if !first {
			jump := math.Abs(s.Rect.X - prev.X)
			if jump > maxJump {
				maxJump = jump
			}
		}
		prev = s.Rect
		first = false
	}
	if maxJump > 0.1 {
		t.Errorf("camera jumped %f across the segment boundary", maxJump)
	}
}

func TestSampleAtInterpolatesBetweenSamples(t *testing.T) {
	track := BuildTrack(nil, 1000, 10) // 100 ms steps, full frame all the way
	r := track.SampleAt(150)
	if math.Abs(r.W-1.0) > 1e-9 {
		t.Errorf("empty timeline sample = %+v, want full rect", r)
	}

	// Out-of-range sampling clamps.
	if r := track.SampleAt(-50); math.Abs(r.W-1.0) > 1e-9 {
		t.Errorf("pre-range sample = %+v", r)
	}
	if r := track.SampleAt(99999); math.Abs(r.W-1.0) > 1e-9 {
		t.Errorf("post-range sample = %+v", r)
	}
}

func TestPreviewExportParity(t *testing.T) {
	// Same segments, same fps: the pure track builder must reproduce the
	// exact same samples on both call sites.
	segs := []project.ZoomSegment{zoomedSeg("a", 500, 2500)}
	preview := BuildTrack(segs, 5000, 30)
	export := BuildTrack(segs, 5000, 30)

	ps, es := preview.Samples(), export.Samples()
	if len(ps) != len(es) {
		t.Fatalf("sample counts differ: %d vs %d", len(ps), len(es))
	}
	for i := range ps {
		dx := math.Abs(ps[i].Rect.X - es[i].Rect.X)
		dw := math.Abs(ps[i].Rect.W - es[i].Rect.W)
		if dx > 1e-5 || dw > 1e-6 {
			t.Fatalf("parity break at sample %d: %+v vs %+v", i, ps[i], es[i])
		}
	}
}

func TestVisualBoundsExtendPastSegmentEnd(t *testing.T) {
	seg := zoomedSeg("a", 1000, 3000)
	track := BuildTrack([]project.ZoomSegment{seg}, 6000, 60)
	vb := track.VisualBounds(seg)

	if vb.StartTS > seg.StartTS {
		t.Errorf("visual start %d later than nominal %d", vb.StartTS, seg.StartTS)
	}
	if vb.EndTS > seg.EndTS+TimelineVisualReturnTailMs {
		t.Errorf("visual end %d past the allowed tail %d",
			vb.EndTS, seg.EndTS+TimelineVisualReturnTailMs)
	}
	if vb.EndTS < seg.EndTS {
		t.Errorf("zoomed segment bar ended early: %d < %d", vb.EndTS, seg.EndTS)
	}
}
