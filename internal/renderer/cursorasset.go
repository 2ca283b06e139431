package renderer

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/vector"
)

// The fixed cursor silhouette: a 72x110 arrow outline with the hotspot at
// its tip, the (0,0) origin. The shape, the 72:110 ratio and the tip
// hotspot are a rendering contract — re-skins must preserve them or
// preview and export drift.
var cursorOutline = [][2]float32{
	{0, 0},
	{0, 90},
	{22, 70},
	{35, 110},
	{50, 102},
	{38, 63},
	{72, 63},
	{0, 0},
}

const (
	cursorPathW = 72.0
	cursorPathH = 110.0
	// White stroke thickness relative to the silhouette height.
	cursorStrokeRatio = 0.045
)

// CursorSprite is a pre-rasterized cursor at one pixel size.
type CursorSprite struct {
	Image *image.RGBA
	// Hotspot offset inside the sprite, pixels from the top-left.
	HotspotX float64
	HotspotY float64
}

// RasterizeCursor renders the vector silhouette at the given height in
// pixels. fill is the body color from the project settings; the outline
// stays white so the pointer reads on any background. The stroke is
// approximated by a slightly inflated white pass under the fill pass,
// expanded away from the tip so the hotspot never moves.
func RasterizeCursor(heightPx float64, fill color.RGBA) *CursorSprite {
	if heightPx < 4 {
		heightPx = 4
	}
	scale := heightPx / cursorPathH
	stroke := heightPx * cursorStrokeRatio

	w := int(cursorPathW*scale + stroke*2 + 2)
	h := int(heightPx + stroke*2 + 2)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	// Outline pass: the same polygon scaled up about the tip.
	outlineScale := scale * (heightPx + 2*stroke) / heightPx
	drawPolygon(dst, outlineScale, 0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	// Fill pass at the nominal size, tip anchored at the same origin.
	drawPolygon(dst, scale, 0, 0, fill)

	return &CursorSprite{Image: dst, HotspotX: 0, HotspotY: 0}
}

func drawPolygon(dst *image.RGBA, scale float64, dx, dy float32, c color.RGBA) {
	r := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	first := true
	for _, p := range cursorOutline {
		x := p[0]*float32(scale) + dx
		y := p[1]*float32(scale) + dy
		if first {
			r.MoveTo(x, y)
			first = false
			continue
		}
		r.LineTo(x, y)
	}
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// ParseHexColor reads #RGB, #RRGGBB or #RRGGBBAA. Malformed input falls
// back to opaque white rather than failing the render.
func ParseHexColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	fallback := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	parse := func(sub string) (uint8, bool) {
		v, err := strconv.ParseUint(sub, 16, 8)
		if err != nil {
			return 0, false
		}
		return uint8(v), true
	}

	switch len(s) {
	case 3:
		r, okR := parse(strings.Repeat(string(s[0]), 2))
		g, okG := parse(strings.Repeat(string(s[1]), 2))
		b, okB := parse(strings.Repeat(string(s[2]), 2))
		if okR && okG && okB {
			return color.RGBA{R: r, G: g, B: b, A: 255}
		}
	case 6, 8:
		r, okR := parse(s[0:2])
		g, okG := parse(s[2:4])
		b, okB := parse(s[4:6])
		a := uint8(255)
		okA := true
		if len(s) == 8 {
			a, okA = parse(s[6:8])
		}
		if okR && okG && okB && okA {
			return color.RGBA{R: r, G: g, B: b, A: a}
		}
	}
	return fallback
}
