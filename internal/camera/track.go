// Package camera derives the per-frame viewport from the segment model:
// the follow-cursor target generator, the spring integrator producing the
// dense camera track, and the timeline visual bounds shown by the editor.
package camera

import (
	"math"
	"sort"

	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/timeline"
)

// PreviewFPS is the integration cadence of the live preview. Export
// integrates at the output frame rate instead; the two tracks are built by
// the same function so preview and export stay in parity.
const PreviewFPS = 60.0

// Sample is one integrated viewport sample.
type Sample struct {
	TS   int64
	Rect geometry.Rect
}

// Track is the dense, immutable camera path over [0, durationMs]. The
// preview render loop only reads it; recomputation replaces the whole
// snapshot.
type Track struct {
	samples    []Sample
	durationMs int64
}

// BuildTrack integrates the viewport toward the segment targets at the
// consumer's cadence. It is a pure function of its inputs: preview and
// export call it with the same segments and get byte-identical tracks for
// equal fps.
func BuildTrack(segs []project.ZoomSegment, durationMs int64, fps float64) *Track {
	if durationMs <= 0 {
		return &Track{samples: []Sample{{TS: 0, Rect: geometry.FullRect()}}}
	}
	if fps <= 0 {
		fps = PreviewFPS
	}
	stepMs := 1000.0 / fps

	runtime := prepareRuntime(segs, durationMs)

	springs := newRectSprings(0, 0, 1, 1)
	samples := make([]Sample, 0, int(float64(durationMs)/stepMs)+2)
	samples = append(samples, Sample{TS: 0, Rect: geometry.FullRect()})

	prev := 0.0
	for prev < float64(durationMs) {
		ts := prev + stepMs
		if ts > float64(durationMs) {
			ts = float64(durationMs)
		}

		// Boundary-aligned sampling: the target for [prev, ts] is fixed at
		// the interval start, which keeps segment starts visually crisp.
		target, spring := runtime.targetAt(int64(prev))
		dt := (ts - prev) / 1000.0
		springs.step(target.X, target.Y, target.W, target.H, dt, spring)

		raw := geometry.Rect{
			X: springs.x.value,
			Y: springs.y.value,
			W: springs.w.value,
			H: springs.h.value,
		}
		samples = append(samples, Sample{TS: int64(math.Round(ts)), Rect: raw.Clamp()})
		prev = ts
	}

	return &Track{samples: samples, durationMs: durationMs}
}

// Samples exposes the raw sample sequence, strictly increasing in TS.
func (t *Track) Samples() []Sample {
	return t.samples
}

// DurationMs is the covered timeline span.
func (t *Track) DurationMs() int64 {
	return t.durationMs
}

// SampleAt interpolates the viewport at an arbitrary timestamp.
func (t *Track) SampleAt(ts int64) geometry.Rect {
	n := len(t.samples)
	if n == 0 {
		return geometry.FullRect()
	}
	if ts <= t.samples[0].TS {
		return t.samples[0].Rect
	}
	if ts >= t.samples[n-1].TS {
		return t.samples[n-1].Rect
	}

	idx := sort.Search(n, func(i int) bool { return t.samples[i].TS > ts })
	left := t.samples[idx-1]
	right := t.samples[idx]
	span := float64(right.TS - left.TS)
	if span <= 0 {
		return right.Rect
	}
	f := float64(ts-left.TS) / span
	return geometry.Rect{
		X: geometry.Lerp(left.Rect.X, right.Rect.X, f),
		Y: geometry.Lerp(left.Rect.Y, right.Rect.Y, f),
		W: geometry.Lerp(left.Rect.W, right.Rect.W, f),
		H: geometry.Lerp(left.Rect.H, right.Rect.H, f),
	}
}

// runtimeSegments is the integration view of the timeline: sorted
// segments with normalized target points.
type runtimeSegments struct {
	segs []project.ZoomSegment
}

func prepareRuntime(segs []project.ZoomSegment, durationMs int64) runtimeSegments {
	rt := make([]project.ZoomSegment, 0, len(segs))
	for _, seg := range segs {
		if seg.EndTS <= seg.StartTS || seg.StartTS >= durationMs {
			continue
		}
		s := seg
		if s.EndTS > durationMs {
			s.EndTS = durationMs
		}
		s.TargetPoints = append([]project.TargetPoint(nil), seg.TargetPoints...)
		s.InitialRect = s.InitialRect.Clamp()
		if len(s.TargetPoints) > 0 {
			timeline.NormalizePoints(&s)
		}
		rt = append(rt, s)
	}
	timeline.Sort(rt)
	return runtimeSegments{segs: rt}
}

// targetAt returns the active target rect and spring at ts. Outside every
// segment the camera relaxes to the full frame under the default spring.
func (r runtimeSegments) targetAt(ts int64) (geometry.Rect, project.CameraSpring) {
	idx := sort.Search(len(r.segs), func(i int) bool { return r.segs[i].StartTS > ts })
	if idx == 0 {
		return geometry.FullRect(), project.DefaultSpring()
	}
	seg := r.segs[idx-1]
	if ts >= seg.EndTS {
		return geometry.FullRect(), project.DefaultSpring()
	}

	spring := seg.Spring.Normalize()
	pts := seg.TargetPoints
	if len(pts) == 0 {
		// Fixed mode: the engine falls back to the initial rect.
		return seg.InitialRect, spring
	}

	// Step semantics: latest point at or before ts. The spring itself
	// smooths the jumps.
	pIdx := sort.Search(len(pts), func(i int) bool { return pts[i].TS > ts })
	if pIdx == 0 {
		return pts[0].Rect, spring
	}
	return pts[pIdx-1].Rect, spring
}
