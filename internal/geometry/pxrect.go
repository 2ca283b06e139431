package geometry

import "math"

// PxRect is a rectangle in physical screen pixels, the coordinate space of
// the telemetry log.
type PxRect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (p PxRect) CenterX() float64 { return p.X + p.W*0.5 }
func (p PxRect) CenterY() float64 { return p.Y + p.H*0.5 }

// Expand grows the rect by pad pixels on each side.
func (p PxRect) Expand(pad float64) PxRect {
	return PxRect{
		X: p.X - pad,
		Y: p.Y - pad,
		W: p.W + pad*2,
		H: p.H + pad*2,
	}
}

// ExpandToAspect grows the shorter axis around the center until the rect's
// aspect ratio equals aspect. The covered region is preserved.
func (p PxRect) ExpandToAspect(aspect float64) PxRect {
	safeAspect := math.Max(aspect, 0.1)
	current := p.W / math.Max(p.H, 1e-9)
	if math.Abs(current-safeAspect) < 1e-12 {
		return p
	}
	if current < safeAspect {
		w := p.H * safeAspect
		return PxRect{X: p.CenterX() - w*0.5, Y: p.Y, W: w, H: p.H}
	}
	h := p.W / safeAspect
	return PxRect{X: p.X, Y: p.CenterY() - h*0.5, W: p.W, H: h}
}

// Union is the smallest pixel rect covering both.
func (p PxRect) Union(other PxRect) PxRect {
	left := math.Min(p.X, other.X)
	top := math.Min(p.Y, other.Y)
	right := math.Max(p.X+p.W, other.X+other.W)
	bottom := math.Max(p.Y+p.H, other.Y+other.H)
	return PxRect{
		X: left,
		Y: top,
		W: math.Max(right-left, 1),
		H: math.Max(bottom-top, 1),
	}
}

// Normalize converts to normalized source coordinates, clamped into the
// unit square.
func (p PxRect) Normalize(screenW, screenH float64) Rect {
	sw := math.Max(screenW, 1)
	sh := math.Max(screenH, 1)
	left := clamp(p.X/sw, 0, 1)
	top := clamp(p.Y/sh, 0, 1)
	right := clamp((p.X+p.W)/sw, 0, 1)
	bottom := clamp((p.Y+p.H)/sh, 0, 1)
	return Rect{
		X: left,
		Y: top,
		W: math.Max(right-left, 0),
		H: math.Max(bottom-top, 0),
	}
}
