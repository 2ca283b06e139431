package geometry

import "math"

const (
	// MinRectSize is the smallest normalized side a viewport may have.
	// Keeps 1/max(w,h) from exploding downstream.
	MinRectSize = 0.05

	// ContainsEps absorbs float drift in containment checks.
	ContainsEps = 1e-6
)

// Rect is a rectangle in normalized source coordinates (0.0–1.0).
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// FullRect is the whole source frame.
func FullRect() Rect {
	return Rect{X: 0, Y: 0, W: 1, H: 1}
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) CenterX() float64 { return r.X + r.W*0.5 }
func (r Rect) CenterY() float64 { return r.Y + r.H*0.5 }

// Zoom is the zoom strength of the viewport: 1/max(w,h).
func (r Rect) Zoom() float64 {
	return 1.0 / math.Max(math.Max(r.W, r.H), 1e-4)
}

// Contains reports whether other lies fully inside r (epsilon-tolerant).
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X-ContainsEps &&
		other.Y >= r.Y-ContainsEps &&
		other.Right() <= r.Right()+ContainsEps &&
		other.Bottom() <= r.Bottom()+ContainsEps
}

// Inset shrinks the rect by marginRatio of its own size on each side.
func (r Rect) Inset(marginRatio float64) Rect {
	safe := clamp(marginRatio, 0, 0.49)
	insetX := r.W * safe
	insetY := r.H * safe
	w := math.Max(r.W-insetX*2, 1e-4)
	h := math.Max(r.H-insetY*2, 1e-4)
	return Rect{
		X: clamp(r.X+insetX, 0, 1-w),
		Y: clamp(r.Y+insetY, 0, 1-h),
		W: w,
		H: h,
	}
}

// Union is the smallest rect covering both r and other.
func (r Rect) Union(other Rect) Rect {
	left := math.Min(r.X, other.X)
	top := math.Min(r.Y, other.Y)
	right := math.Max(r.Right(), other.Right())
	bottom := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// Clamp enforces the normalized-rect invariants: sides in
// [MinRectSize, 1] and the rect fully inside the unit square. The center
// is preserved where possible.
func (r Rect) Clamp() Rect {
	cx := r.CenterX()
	cy := r.CenterY()
	w := clamp(r.W, MinRectSize, 1)
	h := clamp(r.H, MinRectSize, 1)
	return Rect{
		X: clamp(cx-w*0.5, 0, 1-w),
		Y: clamp(cy-h*0.5, 0, 1-h),
		W: w,
		H: h,
	}
}

// Valid reports whether r already satisfies the normalized-rect invariants.
func (r Rect) Valid() bool {
	return r.W >= MinRectSize-ContainsEps && r.W <= 1+ContainsEps &&
		r.H >= MinRectSize-ContainsEps && r.H <= 1+ContainsEps &&
		r.X >= -ContainsEps && r.Y >= -ContainsEps &&
		r.Right() <= 1+ContainsEps && r.Bottom() <= 1+ContainsEps
}

// MoveCenter returns r re-centered on (cx, cy), clamped into the unit
// square with size preserved.
func (r Rect) MoveCenter(cx, cy float64) Rect {
	return Rect{
		X: clamp(cx-r.W*0.5, 0, 1-r.W),
		Y: clamp(cy-r.H*0.5, 0, 1-r.H),
		W: r.W,
		H: r.H,
	}
}

// FromCenterZoom builds the viewport rect for a zoom strength centered on
// (cx, cy), aspect-locked to the output frame. screenAspect and
// outputAspect are width/height ratios; in normalized source units the
// lock reads w·screenAspect = h·outputAspect. The longer normalized side
// carries 1/zoom, the center is clamped so the rect stays inside the unit
// square.
func FromCenterZoom(cx, cy, zoom, screenAspect, outputAspect float64) Rect {
	z := math.Max(zoom, 1.0)
	sa := math.Max(screenAspect, 0.1)
	oa := math.Max(outputAspect, 0.1)

	w := 1.0 / z
	h := w * sa / oa
	if h > 1 {
		h = 1.0 / z
		w = h * oa / sa
	}
	w = clamp(w, MinRectSize, 1)
	h = clamp(h, MinRectSize, 1)

	return Rect{W: w, H: h}.MoveCenter(cx, cy)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps a scalar into [0, 1].
func Clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
