// Package timeline implements the editable segment model: ordering,
// no-op trimming, non-overlap enforcement on edits, and gap search for
// manual segment placement.
package timeline

import (
	"sort"

	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

// ManualSlotMs caps the length of a freshly inserted manual segment.
const ManualSlotMs = 1600

// Sort orders segments by start timestamp, in place.
func Sort(segs []project.ZoomSegment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].StartTS < segs[j].StartTS
	})
}

// TrimAutoNoop drops the no-op prefix of an auto segment: leading target
// points whose zoom strength stays at or below 1+eps. The segment start
// moves to the first active point. Returns false when nothing active
// remains and the segment should be dropped. Manual segments pass through
// untouched. The operation is idempotent.
func TrimAutoNoop(seg *project.ZoomSegment) bool {
	if !seg.IsAuto {
		return true
	}

	if len(seg.TargetPoints) == 0 {
		return seg.InitialRect.Zoom() > 1+project.ZoomEps
	}

	first := -1
	for i, pt := range seg.TargetPoints {
		if pt.Rect.Zoom() > 1+project.ZoomEps {
			first = i
			break
		}
	}
	if first < 0 {
		return false
	}
	if first > 0 {
		seg.TargetPoints = seg.TargetPoints[first:]
	}
	if ts := seg.TargetPoints[0].TS; ts > seg.StartTS {
		seg.StartTS = ts
		seg.InitialRect = seg.TargetPoints[0].Rect
	}
	return seg.Duration() >= 1
}

// NormalizePoints clamps target point timestamps into the segment, sorts
// them, collapses duplicates (last wins) and synthesizes boundary points at
// the segment edges so integration always has a target.
func NormalizePoints(seg *project.ZoomSegment) {
	if len(seg.TargetPoints) == 0 {
		return
	}

	pts := seg.TargetPoints
	for i := range pts {
		if pts[i].TS < seg.StartTS {
			pts[i].TS = seg.StartTS
		}
		if pts[i].TS > seg.EndTS {
			pts[i].TS = seg.EndTS
		}
		pts[i].Rect = pts[i].Rect.Clamp()
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].TS < pts[j].TS })

	dedup := pts[:0]
	for _, pt := range pts {
		if len(dedup) > 0 && dedup[len(dedup)-1].TS == pt.TS {
			dedup[len(dedup)-1] = pt
			continue
		}
		dedup = append(dedup, pt)
	}

	if dedup[0].TS > seg.StartTS {
		dedup = append([]project.TargetPoint{{TS: seg.StartTS, Rect: dedup[0].Rect}}, dedup...)
	}
	if last := dedup[len(dedup)-1]; last.TS < seg.EndTS {
		dedup = append(dedup, project.TargetPoint{TS: seg.EndTS, Rect: last.Rect})
	}
	seg.TargetPoints = dedup
}

// Gap is a free slot on the timeline.
type Gap struct {
	StartTS int64
	EndTS   int64
}

// FindAvailableGap locates a free slot for a new segment. Gaps between
// existing segments are bounded by the mandatory separation on each side;
// the gap containing preferredStartTs wins, otherwise the nearest following
// gap, otherwise the nearest preceding one. The slot is capped at
// ManualSlotMs and anchored at preferredStartTs when it fits. Returns
// ok=false when no gap can hold even a minimum-length segment.
func FindAvailableGap(segs []project.ZoomSegment, durationMs, preferredStartTs int64) (Gap, bool) {
	sorted := make([]project.ZoomSegment, len(segs))
	copy(sorted, segs)
	Sort(sorted)

	var gaps []Gap
	cursor := int64(0)
	for _, seg := range sorted {
		gapEnd := seg.StartTS - project.MinSegmentGapMs
		if gapEnd-cursor >= project.MinSegmentMs {
			gaps = append(gaps, Gap{StartTS: cursor, EndTS: gapEnd})
		}
		next := seg.EndTS + project.MinSegmentGapMs
		if next > cursor {
			cursor = next
		}
	}
	if durationMs-cursor >= project.MinSegmentMs {
		gaps = append(gaps, Gap{StartTS: cursor, EndTS: durationMs})
	}
	if len(gaps) == 0 {
		return Gap{}, false
	}

	chosen := gaps[len(gaps)-1]
	for _, g := range gaps {
		if preferredStartTs >= g.StartTS && preferredStartTs < g.EndTS {
			chosen = g
			break
		}
		if g.StartTS > preferredStartTs {
			chosen = g
			break
		}
	}

	length := chosen.EndTS - chosen.StartTS
	if length > ManualSlotMs {
		length = ManualSlotMs
	}
	start := preferredStartTs
	if start < chosen.StartTS {
		start = chosen.StartTS
	}
	if start+length > chosen.EndTS {
		start = chosen.EndTS - length
	}
	return Gap{StartTS: start, EndTS: start + length}, true
}

// NeighborBounds returns the interval a segment of the given length may
// occupy without touching its neighbors: earliest allowed start and latest
// allowed end, honoring the mandatory gap on both sides.
func NeighborBounds(segs []project.ZoomSegment, id string, durationMs int64) (int64, int64) {
	minStart := int64(0)
	maxEnd := durationMs
	var target *project.ZoomSegment
	for i := range segs {
		if segs[i].ID == id {
			target = &segs[i]
			break
		}
	}
	if target == nil {
		return minStart, maxEnd
	}
	for i := range segs {
		seg := &segs[i]
		if seg.ID == id {
			continue
		}
		if seg.EndTS <= target.StartTS {
			if lo := seg.EndTS + project.MinSegmentGapMs; lo > minStart {
				minStart = lo
			}
		}
		if seg.StartTS >= target.EndTS {
			if hi := seg.StartTS - project.MinSegmentGapMs; hi < maxEnd {
				maxEnd = hi
			}
		}
	}
	return minStart, maxEnd
}

// MoveSegment shifts a segment by deltaMs, preserving its length and
// clamping against its neighbors and the recording bounds. Target points
// ride along with the segment. Manual moves clear the auto flag.
func MoveSegment(segs []project.ZoomSegment, id string, deltaMs, durationMs int64) {
	idx := indexOf(segs, id)
	if idx < 0 {
		return
	}
	seg := &segs[idx]
	length := seg.Duration()

	minStart, maxEnd := NeighborBounds(segs, id, durationMs)
	start := seg.StartTS + deltaMs
	if start < minStart {
		start = minStart
	}
	if start+length > maxEnd {
		start = maxEnd - length
	}
	if start < minStart {
		// The slot is narrower than the segment; pin to the left bound.
		start = minStart
	}

	shift := start - seg.StartTS
	seg.StartTS = start
	seg.EndTS = start + length
	for i := range seg.TargetPoints {
		seg.TargetPoints[i].TS += shift
	}
	seg.IsAuto = false
	Sort(segs)
}

// ResizeSegment moves one edge of a segment. The moving edge is clamped
// against the neighbors and the minimum segment length; when the neighbor
// constraints make the minimum unreachable, the grabbed edge may collapse
// the segment down to 1 ms. Manual resizes clear the auto flag.
func ResizeSegment(segs []project.ZoomSegment, id string, newTS, durationMs int64, grabStart bool) {
	idx := indexOf(segs, id)
	if idx < 0 {
		return
	}
	seg := &segs[idx]
	minStart, maxEnd := NeighborBounds(segs, id, durationMs)

	if grabStart {
		start := newTS
		if start < minStart {
			start = minStart
		}
		if start > seg.EndTS-project.MinSegmentMs {
			start = seg.EndTS - project.MinSegmentMs
		}
		if start < minStart {
			start = seg.EndTS - 1
			if start < minStart {
				start = minStart
			}
		}
		seg.StartTS = start
	} else {
		end := newTS
		if end > maxEnd {
			end = maxEnd
		}
		if end < seg.StartTS+project.MinSegmentMs {
			end = seg.StartTS + project.MinSegmentMs
		}
		if end > maxEnd {
			end = seg.StartTS + 1
			if end > maxEnd {
				end = maxEnd
			}
		}
		seg.EndTS = end
	}

	clampPointsIntoSegment(seg)
	seg.IsAuto = false
	Sort(segs)
}

// Postprocess runs the engine's final pass over freshly generated
// segments: trim no-op prefixes, drop too-short segments, sort, and
// enforce the separation between consecutive segments.
func Postprocess(segs []project.ZoomSegment, durationMs int64) []project.ZoomSegment {
	kept := segs[:0]
	for i := range segs {
		seg := segs[i]
		if seg.EndTS > durationMs {
			seg.EndTS = durationMs
		}
		if !TrimAutoNoop(&seg) {
			continue
		}
		if seg.Duration() < project.MinSegmentMs {
			continue
		}
		kept = append(kept, seg)
	}
	Sort(kept)

	for i := 1; i < len(kept); i++ {
		prev := &kept[i-1]
		cur := &kept[i]
		if cur.StartTS < prev.EndTS+project.MinSegmentGapMs {
			prev.EndTS = cur.StartTS - project.MinSegmentGapMs
			clampPointsIntoSegment(prev)
		}
	}

	final := kept[:0]
	for _, seg := range kept {
		if seg.Duration() >= project.MinSegmentMs {
			final = append(final, seg)
		}
	}
	return final
}

func clampPointsIntoSegment(seg *project.ZoomSegment) {
	if len(seg.TargetPoints) == 0 {
		return
	}
	pts := seg.TargetPoints[:0]
	for _, pt := range seg.TargetPoints {
		if pt.TS < seg.StartTS {
			pt.TS = seg.StartTS
		}
		if pt.TS > seg.EndTS {
			pt.TS = seg.EndTS
		}
		if len(pts) > 0 && pts[len(pts)-1].TS == pt.TS {
			pts[len(pts)-1] = pt
			continue
		}
		pts = append(pts, pt)
	}
	seg.TargetPoints = pts
}

func indexOf(segs []project.ZoomSegment, id string) int {
	for i := range segs {
		if segs[i].ID == id {
			return i
		}
	}
	return -1
}
