package engine

import (
	"math"
	"strings"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
)

// focusClick is an eligible click with its optional UI bounds.
type focusClick struct {
	ts     int64
	x, y   float64
	bounds *geometry.PxRect
}

// focusCluster merges adjacent eligible clicks into one semantic focus.
// The anchor is the last click, so the focus lands on the most recent
// intent.
type focusCluster struct {
	startTS  int64
	anchorTS int64
	anchorX  float64
	anchorY  float64
	bounds   *geometry.PxRect
	count    int
}

// pointerSpeed is the cursor speed right after a pointer sample, px/s.
type pointerSpeed struct {
	ts     int64
	pxPerS float64
}

func isCtrlKey(code string) bool {
	return strings.Contains(code, "Control") || strings.HasPrefix(code, "Ctrl")
}

// collectEligibleClicks applies the trigger policy to the click stream.
func collectEligibleClicks(f *events.File, cfg Config) []focusClick {
	ctrlHeld := false
	var clicks []focusClick
	for _, ev := range f.Events {
		switch ev.Type {
		case events.TypeKeyDown:
			if isCtrlKey(ev.KeyCode) {
				ctrlHeld = true
			}
		case events.TypeKeyUp:
			if isCtrlKey(ev.KeyCode) {
				ctrlHeld = false
			}
		case events.TypeClick:
			if cfg.Policy == PolicyCtrlClick && !ctrlHeld {
				continue
			}
			c := focusClick{ts: ev.TS, x: ev.X, y: ev.Y}
			if ev.UIContext != nil && ev.UIContext.BoundingRect != nil {
				br := ev.UIContext.BoundingRect
				if br.Width > 0 && br.Height > 0 {
					c.bounds = &geometry.PxRect{
						X: float64(br.X),
						Y: float64(br.Y),
						W: float64(br.Width),
						H: float64(br.Height),
					}
				}
			}
			clicks = append(clicks, c)
		}
	}

	if cfg.Policy == PolicyMultiClickWindow {
		clicks = gateByWindow(clicks, cfg)
	}
	return clicks
}

// gateByWindow keeps clicks that have enough company inside the trailing
// activation window. A qualifying click also rescues its immediate
// predecessor when they form a rapid pair, so the cluster anchor does not
// lose its lead-in.
func gateByWindow(clicks []focusClick, cfg Config) []focusClick {
	if len(clicks) < cfg.MinClicksInWindow {
		return nil
	}

	selected := make([]bool, len(clicks))
	for i, c := range clicks {
		windowStart := c.ts - cfg.MultiClickWindowMs
		left := i
		for left > 0 && clicks[left-1].ts >= windowStart {
			left--
		}
		if i+1-left < cfg.MinClicksInWindow {
			continue
		}
		selected[i] = true
		if i > 0 && c.ts-clicks[i-1].ts <= cfg.ClusterGapMs {
			selected[i-1] = true
		}
	}

	out := clicks[:0]
	for i, c := range clicks {
		if selected[i] {
			out = append(out, c)
		}
	}
	return out
}

// clusterClicks merges consecutive eligible clicks closer than the cluster
// gap. UI bounds union across the cluster.
func clusterClicks(clicks []focusClick, gapMs int64) []focusCluster {
	if len(clicks) == 0 {
		return nil
	}

	var clusters []focusCluster
	cur := focusCluster{
		startTS:  clicks[0].ts,
		anchorTS: clicks[0].ts,
		anchorX:  clicks[0].x,
		anchorY:  clicks[0].y,
		bounds:   clicks[0].bounds,
		count:    1,
	}
	for _, c := range clicks[1:] {
		if c.ts-cur.anchorTS <= gapMs {
			cur.anchorTS = c.ts
			cur.anchorX = c.x
			cur.anchorY = c.y
			cur.count++
			if c.bounds != nil {
				if cur.bounds == nil {
					cur.bounds = c.bounds
				} else {
					u := cur.bounds.Union(*c.bounds)
					cur.bounds = &u
				}
			}
			continue
		}
		clusters = append(clusters, cur)
		cur = focusCluster{
			startTS:  c.ts,
			anchorTS: c.ts,
			anchorX:  c.x,
			anchorY:  c.y,
			bounds:   c.bounds,
			count:    1,
		}
	}
	clusters = append(clusters, cur)
	return clusters
}

// semanticFocus derives the aspect-locked, padded, zoom-clamped viewport
// for a cluster. Without UI bounds the fallback is a fixed-zoom rect
// centered on the click.
func semanticFocus(cl focusCluster, screenW, screenH float64, outputAspect float64, cfg Config) geometry.Rect {
	screenAspect := screenW / math.Max(screenH, 1)

	if cl.bounds == nil {
		return geometry.FromCenterZoom(
			geometry.Clamp01(cl.anchorX/screenW),
			geometry.Clamp01(cl.anchorY/screenH),
			cfg.FallbackZoom,
			screenAspect, outputAspect,
		)
	}

	b := *cl.bounds
	pad := cfg.SemanticPadRatio * math.Max(b.W, b.H)
	padded := b.Expand(pad).ExpandToAspect(outputAspect)
	rect := padded.Normalize(screenW, screenH)

	zoom := rect.Zoom()
	if zoom > cfg.MaxZoom {
		// Clamped: recenter on the original focus at the zoom ceiling.
		return geometry.FromCenterZoom(
			geometry.Clamp01(b.CenterX()/screenW),
			geometry.Clamp01(b.CenterY()/screenH),
			cfg.MaxZoom,
			screenAspect, outputAspect,
		)
	}
	return rect.Clamp()
}

// clusterFocusRect is the raw focus region used for the safe-zone
// containment test: the unpadded UI bounds, or a point at the anchor.
func clusterFocusRect(cl focusCluster, screenW, screenH float64) geometry.Rect {
	if cl.bounds != nil {
		return cl.bounds.Normalize(screenW, screenH)
	}
	px := geometry.Clamp01(cl.anchorX / screenW)
	py := geometry.Clamp01(cl.anchorY / screenH)
	return geometry.Rect{X: px, Y: py, W: 0, H: 0}
}

// buildPointerSpeeds derives cursor speeds from consecutive pointer
// events.
func buildPointerSpeeds(f *events.File) []pointerSpeed {
	pointer := f.Pointer()
	if len(pointer) < 2 {
		return nil
	}
	speeds := make([]pointerSpeed, 0, len(pointer)-1)
	for i := 1; i < len(pointer); i++ {
		dt := float64(pointer[i].TS - pointer[i-1].TS)
		if dt <= 0 {
			continue
		}
		dist := math.Hypot(pointer[i].X-pointer[i-1].X, pointer[i].Y-pointer[i-1].Y)
		speeds = append(speeds, pointerSpeed{
			ts:     pointer[i].TS,
			pxPerS: dist / dt * 1000,
		})
	}
	return speeds
}

// preRollStart finds where to open a segment before its anchor click: the
// earliest moment inside the pre-roll window where the cursor had already
// slowed below the threshold. A hand still in motion at the click gets no
// pre-roll.
func preRollStart(anchorTS int64, speeds []pointerSpeed, cfg Config) int64 {
	windowStart := anchorTS - cfg.PreRollMs
	var window []pointerSpeed
	for _, s := range speeds {
		if s.ts >= windowStart && s.ts <= anchorTS {
			window = append(window, s)
		}
	}
	if len(window) == 0 {
		return anchorTS
	}
	if window[len(window)-1].pxPerS >= cfg.SlowdownPxPerS {
		return anchorTS
	}
	for i := 1; i < len(window); i++ {
		if window[i-1].pxPerS >= cfg.SlowdownPxPerS && window[i].pxPerS < cfg.SlowdownPxPerS {
			return window[i].ts
		}
	}
	start := window[0].ts
	if start > anchorTS {
		start = anchorTS
	}
	return start
}

// normalizeScrollDelta maps a wheel delta to line units: raw pixel deltas
// (|d| >= 100) divide by the classic 120 notch, everything clamps to ±6.
func normalizeScrollDelta(d float64) float64 {
	if math.Abs(d) >= 100 {
		d = d / 120
	}
	if d > 6 {
		return 6
	}
	if d < -6 {
		return -6
	}
	return d
}
