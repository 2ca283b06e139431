// Package engine is the Smart Camera Engine: it consumes the finalized
// telemetry log once per stop and emits a sorted, non-overlapping list of
// auto zoom segments. The FreeRoam/LockedFocus machine is ephemeral —
// only its output is persisted.
package engine

import (
	"fmt"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/timeline"
)

// Engine turns click/scroll telemetry into zoom segments.
type Engine struct {
	cfg Config
}

// New builds an engine with the given trigger tuning.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// scrollState tracks one scroll session inside a locked segment.
type scrollState struct {
	active       bool
	sessionStart int64
	lastTS       int64
	accumAbsDy   float64
}

// BuildSegments runs one engine pass. An empty or coordinate-less event
// stream is a capture shortfall, not an error: the engine emits zero
// segments and the caller surfaces a warning.
func (e *Engine) BuildSegments(f *events.File, durationMs int64, outputAspect float64) []project.ZoomSegment {
	if f == nil || durationMs <= 0 || f.ScreenWidth <= 0 || f.ScreenHeight <= 0 {
		return nil
	}

	screenW := float64(f.ScreenWidth)
	screenH := float64(f.ScreenHeight)

	clicks := collectEligibleClicks(f, e.cfg)
	clusters := clusterClicks(clicks, e.cfg.ClusterGapMs)
	if len(clusters) == 0 {
		return nil
	}

	speeds := buildPointerSpeeds(f)
	scrolls := collectScrolls(f)

	var segs []project.ZoomSegment
	var cur *project.ZoomSegment
	var idleDeadline int64
	var scroll scrollState
	scrollIdx := 0

	// Far enough in the past that the first cluster always fires.
	lastAutoStart := -e.cfg.MinZoomIntervalMs * 4
	lastRetarget := -e.cfg.MinZoomIntervalMs * 4

	closeSegment := func(endTS int64) {
		if endTS > durationMs {
			endTS = durationMs
		}
		if endTS <= cur.StartTS {
			endTS = cur.StartTS + 1
		}
		cur.EndTS = endTS
		segs = append(segs, *cur)
		cur = nil
		scroll = scrollState{}
	}

	for _, cl := range clusters {
		if cl.anchorTS >= durationMs {
			break
		}

		if cur != nil {
			limit := cl.anchorTS
			if idleDeadline < limit {
				limit = idleDeadline
			}
			if closeTS, closed := e.applyScrolls(cur, &scroll, scrolls, &scrollIdx, limit, screenH); closed {
				closeSegment(closeTS)
			}
		}
		if cur != nil && cl.anchorTS > idleDeadline {
			closeSegment(idleDeadline)
		}

		focus := semanticFocus(cl, screenW, screenH, outputAspect, e.cfg)

		if cur == nil {
			if cl.anchorTS-lastAutoStart < e.cfg.MinZoomIntervalMs {
				continue
			}
			start := preRollStart(cl.anchorTS, speeds, e.cfg)
			if start < 0 {
				start = 0
			}
			cur = &project.ZoomSegment{
				ID:           fmt.Sprintf("auto-%d", len(segs)+1),
				StartTS:      start,
				InitialRect:  focus,
				TargetPoints: []project.TargetPoint{{TS: start, Rect: focus}},
				Spring:       project.DefaultSpring(),
				Mode:         project.ModeFollowCursor,
				Trigger:      project.TriggerAutoClick,
				IsAuto:       true,
			}
			lastAutoStart = cl.anchorTS
			idleDeadline = cl.anchorTS + e.cfg.IdleTimeoutMs
			continue
		}

		// LockedFocus: a focus already framed by the safe zone only keeps
		// the segment alive; an escaped focus retargets, rate-limited on
		// its own clock so retargets stay possible while fresh segment
		// starts are still locked out.
		last := cur.TargetPoints[len(cur.TargetPoints)-1]
		safe := last.Rect.Inset(e.cfg.ContainmentMargin)
		fr := clusterFocusRect(cl, screenW, screenH)
		if !safe.Contains(fr) && cl.anchorTS-lastRetarget >= e.cfg.MinZoomIntervalMs {
			appendTargetPoint(cur, cl.anchorTS, focus)
			lastRetarget = cl.anchorTS
		}
		idleDeadline = cl.anchorTS + e.cfg.IdleTimeoutMs
	}

	if cur != nil {
		if closeTS, closed := e.applyScrolls(cur, &scroll, scrolls, &scrollIdx, idleDeadline, screenH); closed {
			closeSegment(closeTS)
		} else {
			closeSegment(idleDeadline)
		}
	}

	for i := range segs {
		segs[i].ID = fmt.Sprintf("auto-%d", i+1)
	}
	return timeline.Postprocess(segs, durationMs)
}

// applyScrolls feeds the scroll events up to limitTS into the locked
// segment: each one shifts the active target vertically and is recorded as
// a new target point. Returns the exit timestamp when the scroll session
// outlives the global timeout or travels more than the allowed share of
// the screen.
func (e *Engine) applyScrolls(
	seg *project.ZoomSegment,
	st *scrollState,
	scrolls []events.InputEvent,
	idx *int,
	limitTS int64,
	screenH float64,
) (int64, bool) {
	for *idx < len(scrolls) {
		ev := scrolls[*idx]
		if ev.TS > limitTS {
			return 0, false
		}
		*idx++
		if ev.TS < seg.StartTS {
			continue
		}

		if !st.active || ev.TS-st.lastTS > e.cfg.ScrollIdleResetMs {
			st.active = true
			st.sessionStart = ev.TS
			st.accumAbsDy = 0
		}
		dy := ev.Delta.DY
		st.accumAbsDy += abs(dy)
		st.lastTS = ev.TS

		last := seg.TargetPoints[len(seg.TargetPoints)-1]
		shift := -normalizeScrollDelta(dy) * e.cfg.ScrollShiftRatio * last.Rect.H
		shifted := last.Rect.MoveCenter(last.Rect.CenterX(), last.Rect.CenterY()+shift)
		appendTargetPoint(seg, ev.TS, shifted)

		if ev.TS-st.sessionStart >= e.cfg.GlobalScrollTimeoutMs ||
			st.accumAbsDy >= e.cfg.ScrollTravelRatio*screenH {
			return ev.TS, true
		}
	}
	return 0, false
}

func appendTargetPoint(seg *project.ZoomSegment, ts int64, rect geometry.Rect) {
	if last := len(seg.TargetPoints) - 1; last >= 0 && seg.TargetPoints[last].TS == ts {
		seg.TargetPoints[last].Rect = rect
		return
	}
	seg.TargetPoints = append(seg.TargetPoints, project.TargetPoint{TS: ts, Rect: rect})
}

func collectScrolls(f *events.File) []events.InputEvent {
	var out []events.InputEvent
	for _, ev := range f.Events {
		if ev.Type == events.TypeScroll && ev.Delta != nil {
			out = append(out, ev)
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
