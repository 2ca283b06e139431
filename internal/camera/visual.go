package camera

import (
	"math"

	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

// TimelineVisualReturnTailMs extends a segment's visible bar past its end
// to show the return-to-free-roam tail.
const TimelineVisualReturnTailMs = 200

// visualRectDeltaEps: below this per-step rect movement the camera counts
// as settled.
const visualRectDeltaEps = 5e-5

// VisualBounds is the time range a segment's bar occupies in the timeline
// UI, derived from the integrated track rather than the nominal
// [startTs, endTs].
type VisualBounds struct {
	StartTS int64
	EndTS   int64
}

// VisualBounds walks the integrated track around the segment: find the
// peak zoom inside its range, then extend while samples stay visually
// active (zoomed in or still moving). The bar never starts later than the
// nominal start, so manual bars stay responsive, and never ends later than
// endTs plus the return tail.
func (t *Track) VisualBounds(seg project.ZoomSegment) VisualBounds {
	samples := t.samples
	if len(samples) == 0 {
		return VisualBounds{StartTS: seg.StartTS, EndTS: seg.EndTS}
	}

	peak := -1
	peakZoom := 0.0
	for i, s := range samples {
		if s.TS < seg.StartTS || s.TS > seg.EndTS {
			continue
		}
		if z := s.Rect.Zoom(); z > peakZoom {
			peakZoom = z
			peak = i
		}
	}
	if peak < 0 {
		return VisualBounds{StartTS: seg.StartTS, EndTS: seg.EndTS}
	}

	start := peak
	for start > 0 && t.visuallyActive(start-1) {
		start--
	}
	end := peak
	for end < len(samples)-1 && t.visuallyActive(end+1) {
		end++
	}

	visStart := samples[start].TS
	if seg.StartTS < visStart {
		visStart = seg.StartTS
	}
	visEnd := samples[end].TS
	if tail := seg.EndTS + TimelineVisualReturnTailMs; visEnd > tail {
		visEnd = tail
	}
	if visEnd > t.durationMs {
		visEnd = t.durationMs
	}
	return VisualBounds{StartTS: visStart, EndTS: visEnd}
}

func (t *Track) visuallyActive(i int) bool {
	s := t.samples[i]
	if s.Rect.Zoom() > 1+project.ZoomEps {
		return true
	}
	if i == 0 {
		return false
	}
	prev := t.samples[i-1].Rect
	delta := math.Max(
		math.Max(math.Abs(s.Rect.X-prev.X), math.Abs(s.Rect.Y-prev.Y)),
		math.Max(math.Abs(s.Rect.W-prev.W), math.Abs(s.Rect.H-prev.H)),
	)
	return delta > visualRectDeltaEps
}
