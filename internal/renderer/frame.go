package renderer

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
)

// FrameRenderer draws complete output frames for the export driver. The
// preview shell does the same composition on the GPU; the math comes from
// the shared Composer either way.
type FrameRenderer struct {
	composer *Composer
	bg       color.RGBA
	fill     color.RGBA
	scaler   xdraw.Scaler
}

// NewFrameRenderer binds a composer to the drawing settings.
func NewFrameRenderer(c *Composer, bgColor, cursorColor string) *FrameRenderer {
	return &FrameRenderer{
		composer: c,
		bg:       ParseHexColor(bgColor),
		fill:     ParseHexColor(cursorColor),
		scaler:   xdraw.ApproxBiLinear,
	}
}

// Render composes one output frame at previewMs from the decoded source
// frame. dst must match the composer's frame size; it is fully
// overwritten.
func (r *FrameRenderer) Render(dst *image.RGBA, src *image.RGBA, previewMs int64) {
	frameW, frameH := r.composer.FrameSize()
	viewport := r.composer.Viewport(previewMs)

	fillRect(dst, dst.Bounds(), r.bg)

	srcBounds := src.Bounds()
	crop := cropRect(viewport, srcBounds)
	dstRect := fitRect(crop, frameW, frameH)
	r.scaler.Scale(dst, dstRect, src, crop, xdraw.Src, nil)

	_, place := r.composer.FrameAt(previewMs)
	r.drawCursor(dst, place)
}

// drawCursor rasterizes the silhouette at the pulsed size and blits it
// with the tip at the placement point.
func (r *FrameRenderer) drawCursor(dst *image.RGBA, place CursorPlacement) {
	height := place.SizePx * place.Scale
	if height < 1 {
		return
	}
	sprite := RasterizeCursor(height, r.fill)

	// The hotspot sits at the sprite origin; the pulse is anchored there
	// by construction.
	offset := image.Pt(int(math.Round(place.X)), int(math.Round(place.Y)))
	target := sprite.Image.Bounds().Add(offset)
	xdraw.Draw(dst, target, sprite.Image, image.Point{}, xdraw.Over)
}

// cropRect maps a normalized viewport onto source pixel bounds.
func cropRect(view geometry.Rect, src image.Rectangle) image.Rectangle {
	sw := float64(src.Dx())
	sh := float64(src.Dy())
	x0 := src.Min.X + int(math.Round(view.X*sw))
	y0 := src.Min.Y + int(math.Round(view.Y*sh))
	x1 := src.Min.X + int(math.Round(view.Right()*sw))
	y1 := src.Min.Y + int(math.Round(view.Bottom()*sh))

	rect := image.Rect(x0, y0, x1, y1).Intersect(src)
	if rect.Empty() {
		return src
	}
	return rect
}

// fitRect letterboxes a source crop into the output frame, preserving its
// aspect ratio.
func fitRect(crop image.Rectangle, frameW, frameH int) image.Rectangle {
	cw := float64(crop.Dx())
	ch := float64(crop.Dy())
	if cw <= 0 || ch <= 0 {
		return image.Rect(0, 0, frameW, frameH)
	}

	scale := math.Min(float64(frameW)/cw, float64(frameH)/ch)
	w := int(math.Round(cw * scale))
	h := int(math.Round(ch * scale))
	x := (frameW - w) / 2
	y := (frameH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func fillRect(dst *image.RGBA, bounds image.Rectangle, c color.RGBA) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(bounds.Min.X, y):dst.PixOffset(bounds.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}
