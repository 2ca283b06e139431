package timeline

import (
	"testing"

	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

func seg(id string, start, end int64) project.ZoomSegment {
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

func autoSeg(id string, start, end int64, pts []project.TargetPoint) project.ZoomSegment {
	s := seg(id, start, end)
	s.IsAuto = true
	s.Trigger = project.TriggerAutoClick
	s.Mode = project.ModeFollowCursor
	s.TargetPoints = pts
	return s
}

func fullPoint(ts int64) project.TargetPoint {
	return project.TargetPoint{TS: ts, Rect: geometry.FullRect()}
}

func zoomPoint(ts int64) project.TargetPoint {
	return project.TargetPoint{TS: ts, Rect: geometry.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}}
}

func TestTrimAutoNoopDropsLeadingFullFramePoints(t *testing.T) {
	s := autoSeg("auto-1", 1000, 3000, []project.TargetPoint{
		fullPoint(1000), fullPoint(1200), zoomPoint(1500), zoomPoint(2800),
	})

	if !TrimAutoNoop(&s) {
		t.Fatal("segment with real zoom must survive the trim")
	}
	if s.StartTS != 1500 {
		t.Errorf("startTs = %d, want 1500", s.StartTS)
	}
	if len(s.TargetPoints) != 2 {
		t.Errorf("target points = %d, want 2", len(s.TargetPoints))
	}
}

func TestTrimAutoNoopIsIdempotent(t *testing.T) {
	s := autoSeg("auto-1", 1000, 3000, []project.TargetPoint{
		fullPoint(1000), zoomPoint(1400), zoomPoint(2800),
	})
	if !TrimAutoNoop(&s) {
		t.Fatal("first trim dropped the segment")
	}
	first := s
	if !TrimAutoNoop(&s) {
		t.Fatal("second trim dropped the segment")
	}
	if s.StartTS != first.StartTS || len(s.TargetPoints) != len(first.TargetPoints) {
		t.Errorf("trim not idempotent: %+v vs %+v", first, s)
	}
}

func TestTrimAutoNoopDropsAllNoopSegment(t *testing.T) {
	s := autoSeg("auto-1", 1000, 3000, []project.TargetPoint{
		fullPoint(1000), fullPoint(2000), fullPoint(3000),
	})
	if TrimAutoNoop(&s) {
		t.Error("all-noop auto segment must be dropped")
	}
}

func TestTrimAutoNoopKeepsManualSegments(t *testing.T) {
	s := seg("manual-1", 1000, 3000)
	s.InitialRect = geometry.FullRect()
	if !TrimAutoNoop(&s) {
		t.Error("manual segments are never trimmed away")
	}
}

func TestMoveClampsAgainstNextSegment(t *testing.T) {
	// Dragging [1000,3000] toward [4000,6000] clamps to [1800,3800]:
	// next start minus the gap minus the segment length.
	segs := []project.ZoomSegment{
		seg("a", 1000, 3000),
		seg("b", 4000, 6000),
	}
	MoveSegment(segs, "a", 2800, 10000)

	var a project.ZoomSegment
	for _, s := range segs {
		if s.ID == "a" {
			a = s
		}
	}
	if a.StartTS != 1800 || a.EndTS != 3800 {
		t.Errorf("moved segment = [%d,%d], want [1800,3800]", a.StartTS, a.EndTS)
	}
}

func TestMoveClampsAgainstPreviousSegment(t *testing.T) {
	segs := []project.ZoomSegment{
		seg("a", 1000, 3000),
		seg("b", 4000, 6000),
	}
	MoveSegment(segs, "b", -2000, 10000)

	var b project.ZoomSegment
	for _, s := range segs {
		if s.ID == "b" {
			b = s
		}
	}
	if b.StartTS != 3200 || b.EndTS != 5200 {
		t.Errorf("moved segment = [%d,%d], want [3200,5200]", b.StartTS, b.EndTS)
	}
}

func TestMoveShiftsTargetPoints(t *testing.T) {
	segs := []project.ZoomSegment{
		autoSeg("a", 1000, 3000, []project.TargetPoint{zoomPoint(1000), zoomPoint(2500)}),
	}
	MoveSegment(segs, "a", 500, 10000)
	s := segs[0]
	if s.TargetPoints[0].TS != 1500 || s.TargetPoints[1].TS != 3000 {
		t.Errorf("target points not shifted: %+v", s.TargetPoints)
	}
	if s.IsAuto {
		t.Error("manual move must clear the auto flag")
	}
}

func TestResizeEnforcesMinimumLength(t *testing.T) {
	segs := []project.ZoomSegment{seg("a", 1000, 3000)}
	ResizeSegment(segs, "a", 2950, 10000, true)
	if segs[0].StartTS != 2800 {
		t.Errorf("start = %d, want clamped 2800 (min length)", segs[0].StartTS)
	}
}

func TestResizeEndClampsAgainstNeighbor(t *testing.T) {
	segs := []project.ZoomSegment{
		seg("a", 1000, 3000),
		seg("b", 3300, 6000),
	}
	ResizeSegment(segs, "a", 5000, 10000, false)
	if segs[0].EndTS != 3100 {
		t.Errorf("end = %d, want 3100 (neighbor start - gap)", segs[0].EndTS)
	}
}

func TestFindAvailableGapPrefersContainingGap(t *testing.T) {
	segs := []project.ZoomSegment{
		seg("a", 1000, 3000),
		seg("b", 6000, 8000),
	}
	gap, ok := FindAvailableGap(segs, 10000, 4000)
	if !ok {
		t.Fatal("expected a gap")
	}
	if gap.StartTS != 4000 {
		t.Errorf("gap start = %d, want preferred 4000", gap.StartTS)
	}
	if gap.EndTS-gap.StartTS != ManualSlotMs {
		t.Errorf("slot length = %d, want %d", gap.EndTS-gap.StartTS, ManualSlotMs)
	}
	// The slot must respect the separation from both neighbors.
	if gap.StartTS < 3000+project.MinSegmentGapMs || gap.EndTS > 6000-project.MinSegmentGapMs {
		t.Errorf("slot [%d,%d] violates the neighbor separation", gap.StartTS, gap.EndTS)
	}
}

func TestFindAvailableGapReturnsNoneWhenFull(t *testing.T) {
	segs := []project.ZoomSegment{seg("a", 0, 10000)}
	if _, ok := FindAvailableGap(segs, 10000, 5000); ok {
		t.Error("expected no gap on a fully occupied timeline")
	}
}

func TestFindAvailableGapClampsSlotIntoGap(t *testing.T) {
	segs := []project.ZoomSegment{seg("a", 0, 4000)}
	gap, ok := FindAvailableGap(segs, 6000, 5500)
	if !ok {
		t.Fatal("expected a gap")
	}
	if gap.EndTS > 6000 || gap.StartTS < 4000+project.MinSegmentGapMs {
		t.Errorf("slot [%d,%d] escapes the free region", gap.StartTS, gap.EndTS)
	}
	if gap.EndTS-gap.StartTS < project.MinSegmentMs {
		t.Errorf("slot too short: %d ms", gap.EndTS-gap.StartTS)
	}
}

func TestPostprocessDropsShortAndOverlapping(t *testing.T) {
	segs := []project.ZoomSegment{
		autoSeg("auto-2", 2900, 5000, []project.TargetPoint{zoomPoint(2900), zoomPoint(4900)}),
		autoSeg("auto-1", 1000, 3000, []project.TargetPoint{zoomPoint(1000), zoomPoint(2900)}),
		autoSeg("auto-3", 5050, 5150, []project.TargetPoint{zoomPoint(5050)}),
	}
	out := Postprocess(segs, 10000)

	for i := 1; i < len(out); i++ {
		if out[i].StartTS-out[i-1].EndTS < project.MinSegmentGapMs {
			t.Errorf("segments %q and %q closer than the gap: %d..%d",
				out[i-1].ID, out[i].ID, out[i-1].EndTS, out[i].StartTS)
		}
	}
	for _, s := range out {
		if s.Duration() < project.MinSegmentMs {
			t.Errorf("segment %q shorter than minimum after postprocess", s.ID)
		}
		if s.ID == "auto-3" {
			t.Error("100 ms segment must be dropped")
		}
	}
}

func TestNormalizePointsSynthesizesBoundaries(t *testing.T) {
	s := autoSeg("a", 1000, 3000, []project.TargetPoint{
		zoomPoint(2500), zoomPoint(1500), zoomPoint(2500),
	})
	NormalizePoints(&s)

	if s.TargetPoints[0].TS != 1000 {
		t.Errorf("first point at %d, want synthesized start 1000", s.TargetPoints[0].TS)
	}
	last := s.TargetPoints[len(s.TargetPoints)-1]
	if last.TS != 3000 {
		t.Errorf("last point at %d, want synthesized end 3000", last.TS)
	}
	for i := 1; i < len(s.TargetPoints); i++ {
		if s.TargetPoints[i].TS <= s.TargetPoints[i-1].TS {
			t.Fatal("points not strictly increasing after normalize")
		}
	}
}
