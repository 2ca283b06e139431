package camera

import (
	"math"

	"github.com/neurochelplus/NeuroScreenCaster/internal/cursor"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

// Follow-cursor tuning: the dead zone is the inner band where the camera
// holds still, the hard edge is where panning saturates to full speed.
const (
	FollowSampleStepMs   = 75
	FollowDeadRatio      = 0.2
	FollowHardRatio      = 0.35
	FollowMaxSpeedPxPerS = 800.0
)

// GenerateFollowPoints replaces the target points of a follow-cursor
// segment with a time-stepped sequence tracking the cursor. The engine's
// recorded points (retargets and scroll shifts) are kept as step
// baselines: when the generator crosses one, it adopts that rect and keeps
// tracking from there. Rect size and aspect are preserved; follow mode
// never modulates zoom.
func GenerateFollowPoints(seg *project.ZoomSegment, cur *cursor.Pipeline, screenW, screenH int) {
	if seg.Mode != project.ModeFollowCursor || seg.EndTS <= seg.StartTS {
		return
	}

	anchors := seg.TargetPoints
	base := seg.InitialRect.Clamp()
	cx, cy := base.CenterX(), base.CenterY()
	w, h := base.W, base.H

	speedX := FollowMaxSpeedPxPerS / math.Max(float64(screenW), 1)
	speedY := FollowMaxSpeedPxPerS / math.Max(float64(screenH), 1)

	estimate := int((seg.EndTS-seg.StartTS)/FollowSampleStepMs) + 2
	points := make([]project.TargetPoint, 0, estimate)

	anchorIdx := 0
	prevTS := seg.StartTS
	for ts := seg.StartTS; ; ts += FollowSampleStepMs {
		if ts > seg.EndTS {
			ts = seg.EndTS
		}

		for anchorIdx < len(anchors) && anchors[anchorIdx].TS <= ts {
			a := anchors[anchorIdx].Rect.Clamp()
			cx, cy = a.CenterX(), a.CenterY()
			w, h = a.W, a.H
			anchorIdx++
		}

		dt := float64(ts-prevTS) / 1000.0
		curX, curY := cur.At(ts)
		cx = followAxis(cx, curX, w, speedX, dt)
		cy = followAxis(cy, curY, h, speedY, dt)

		rect := geometry.Rect{W: w, H: h}.MoveCenter(cx, cy)
		cx, cy = rect.CenterX(), rect.CenterY()
		points = append(points, project.TargetPoint{TS: ts, Rect: rect})

		prevTS = ts
		if ts >= seg.EndTS {
			break
		}
	}

	seg.TargetPoints = points
}

// followAxis moves one axis of the viewport center toward the cursor.
// Inside the dead band nothing happens; between dead band and hard edge
// the pan speed ramps linearly; beyond the hard edge it saturates.
func followAxis(center, cursorPos, size, maxSpeed, dt float64) float64 {
	offset := cursorPos - center
	dead := 0.5 * size * FollowDeadRatio
	hard := 0.5 * size * FollowHardRatio

	mag := math.Abs(offset)
	if mag <= dead {
		return center
	}

	ramp := (mag - dead) / math.Max(hard-dead, 1e-9)
	if ramp > 1 {
		ramp = 1
	}
	step := maxSpeed * ramp * dt
	if offset < 0 {
		step = -step
	}
	return center + step
}

// PrepareSegments finalizes freshly generated or edited segments for
// integration: follow-cursor segments get their tracked target points,
// fixed segments drop any stale ones.
func PrepareSegments(segs []project.ZoomSegment, cur *cursor.Pipeline, screenW, screenH int) {
	for i := range segs {
		switch segs[i].Mode {
		case project.ModeFollowCursor:
			GenerateFollowPoints(&segs[i], cur, screenW, screenH)
		case project.ModeFixed:
			segs[i].TargetPoints = nil
		}
	}
}
