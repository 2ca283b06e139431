// Package renderer composes output frames: the camera transform, the
// vector cursor placement, and the RGBA drawing shared by preview and
// export. Both consumers sample the same camera track and cursor stream,
// which is what guarantees preview/export parity.
package renderer

import (
	"math"

	"github.com/neurochelplus/NeuroScreenCaster/internal/camera"
	"github.com/neurochelplus/NeuroScreenCaster/internal/cursor"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
)

// CursorTimingOffsetMs compensates for video decode lag: the drawn cursor
// samples the telemetry slightly ahead so it aligns with the on-screen
// interaction.
const CursorTimingOffsetMs = 45

// Cursor sizing: share of the shorter frame side at size 1.0, with hard
// pixel bounds.
const (
	cursorSizeToFrameRatio = 0.03
	cursorMinPx            = 8.0
	cursorMaxPx            = 280.0
)

// cursorZoomScaleFloor keeps the cursor from shrinking away as the camera
// zooms in.
const cursorZoomScaleFloor = 0.25

// FrameTransform maps normalized source coordinates into output pixels:
// out = src*Scale*frameSize + Translate.
type FrameTransform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Apply maps a normalized source point into output pixel coordinates.
func (t FrameTransform) Apply(nx, ny float64, frameW, frameH int) (float64, float64) {
	return nx*t.Scale*float64(frameW) + t.TranslateX,
		ny*t.Scale*float64(frameH) + t.TranslateY
}

// CursorPlacement positions the vector cursor on the output frame. X/Y is
// the hotspot (the silhouette tip) in output pixels; Scale folds the click
// pulse and the zoom compensation together and anchors at the tip.
type CursorPlacement struct {
	X      float64
	Y      float64
	SizePx float64
	Scale  float64
}

// Composer produces per-frame transforms for one project snapshot.
type Composer struct {
	track      *camera.Track
	cursor     *cursor.Pipeline
	settings   project.CursorSettings
	frameW     int
	frameH     int
	timelineMs int64
	mediaMs    int64
}

// NewComposer binds a camera track and cursor stream to an output frame
// size. mediaMs is the decoded video duration, which may disagree with the
// project duration; preview time maps linearly between the two.
func NewComposer(
	track *camera.Track,
	cur *cursor.Pipeline,
	settings project.CursorSettings,
	frameW, frameH int,
	timelineMs, mediaMs int64,
) *Composer {
	if mediaMs <= 0 {
		mediaMs = timelineMs
	}
	return &Composer{
		track:      track,
		cursor:     cur,
		settings:   settings,
		frameW:     frameW,
		frameH:     frameH,
		timelineMs: timelineMs,
		mediaMs:    mediaMs,
	}
}

// TimelineTime maps a preview/media timestamp onto the timeline.
func (c *Composer) TimelineTime(previewMs int64) int64 {
	if c.mediaMs == c.timelineMs || c.mediaMs <= 0 {
		return previewMs
	}
	return int64(math.Round(float64(previewMs) * float64(c.timelineMs) / float64(c.mediaMs)))
}

// FrameAt computes the camera transform and cursor placement for one
// output frame at the given preview timestamp.
func (c *Composer) FrameAt(previewMs int64) (FrameTransform, CursorPlacement) {
	tl := c.TimelineTime(previewMs)
	rect := c.track.SampleAt(tl)

	scale := 1.0 / math.Max(math.Max(rect.W, rect.H), geometry.MinRectSize)
	cx := rect.CenterX()
	cy := rect.CenterY()

	tr := FrameTransform{
		Scale:      scale,
		TranslateX: (0.5 - cx*scale) * float64(c.frameW),
		TranslateY: (0.5 - cy*scale) * float64(c.frameH),
	}

	curTS := tl + CursorTimingOffsetMs
	nx, ny := c.cursor.At(curTS)
	px, py := tr.Apply(nx, ny, c.frameW, c.frameH)

	size := c.settings.Size * math.Min(float64(c.frameW), float64(c.frameH)) * cursorSizeToFrameRatio
	if size < cursorMinPx {
		size = cursorMinPx
	}
	if size > cursorMaxPx {
		size = cursorMaxPx
	}

	pulse := c.cursor.PulseScale(curTS)
	place := CursorPlacement{
		X:      px,
		Y:      py,
		SizePx: size,
		Scale:  pulse * math.Max(cursorZoomScaleFloor, scale),
	}
	return tr, place
}

// Viewport returns the sampled camera rect at a preview timestamp; the
// export driver uses it to crop the source frame.
func (c *Composer) Viewport(previewMs int64) geometry.Rect {
	return c.track.SampleAt(c.TimelineTime(previewMs))
}

// FrameSize reports the output dimensions.
func (c *Composer) FrameSize() (int, int) {
	return c.frameW, c.frameH
}
