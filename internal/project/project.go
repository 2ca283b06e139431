// Package project models the editable project document (project.json,
// schemaVersion 1). The project is the single mutable aggregate during
// editing; camera tracks and cursor samples are derived from it and never
// persisted.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
)

const SchemaVersion = 1

// Timing invariants of the segment model, in milliseconds.
const (
	MinSegmentMs    = 200
	MinSegmentGapMs = 200
)

// ZoomEps separates a real zoom from full-frame noise: a segment is a no-op
// while its zoom strength stays at or below 1+ZoomEps.
const ZoomEps = 1e-3

// Zoom segment modes.
const (
	ModeFixed        = "fixed"
	ModeFollowCursor = "follow-cursor"
)

// Zoom segment triggers.
const (
	TriggerAutoClick  = "auto-click"
	TriggerAutoScroll = "auto-scroll"
	TriggerManual     = "manual"
)

// CameraSpring holds the physical smoothing parameters of a segment.
type CameraSpring struct {
	Mass      float64 `json:"mass"`
	Stiffness float64 `json:"stiffness"`
	Damping   float64 `json:"damping"`
}

// DefaultSpring is the stock camera feel.
func DefaultSpring() CameraSpring {
	return CameraSpring{Mass: 1, Stiffness: 170, Damping: 26}
}

// Normalize clamps spring parameters away from degenerate values.
func (s CameraSpring) Normalize() CameraSpring {
	if s.Mass < 1e-3 {
		s.Mass = 1e-3
	}
	if s.Stiffness < 1e-3 {
		s.Stiffness = 1e-3
	}
	if s.Damping < 0 {
		s.Damping = 0
	}
	return s
}

// TargetPoint is a timed viewport target inside a segment.
type TargetPoint struct {
	TS   int64         `json:"ts"`
	Rect geometry.Rect `json:"rect"`
}

// PanKeyframe is the legacy scroll-pan representation. Readers translate it
// into target points on load; writers never produce it.
type PanKeyframe struct {
	TS      int64   `json:"ts"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// ZoomSegment is one zoom region on the timeline.
type ZoomSegment struct {
	ID           string        `json:"id"`
	StartTS      int64         `json:"startTs"`
	EndTS        int64         `json:"endTs"`
	InitialRect  geometry.Rect `json:"initialRect"`
	TargetPoints []TargetPoint `json:"targetPoints"`
	Spring       CameraSpring  `json:"spring"`
	Mode         string        `json:"mode"`
	Trigger      string        `json:"trigger"`
	IsAuto       bool          `json:"isAuto"`

	// Read-only legacy field, cleared by migration before any save.
	PanTrajectory []PanKeyframe `json:"panTrajectory,omitempty"`
}

type zoomSegmentAlias ZoomSegment

// zoomSegmentJSON accepts the legacy targetRect alias for initialRect.
type zoomSegmentJSON struct {
	zoomSegmentAlias
	TargetRect *geometry.Rect `json:"targetRect"`
}

func (z *ZoomSegment) UnmarshalJSON(data []byte) error {
	var aux zoomSegmentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*z = ZoomSegment(aux.zoomSegmentAlias)
	if z.InitialRect.W == 0 && z.InitialRect.H == 0 && aux.TargetRect != nil {
		z.InitialRect = *aux.TargetRect
	}
	return nil
}

// Duration is the segment length in milliseconds.
func (z ZoomSegment) Duration() int64 {
	return z.EndTS - z.StartTS
}

// Timeline groups the editable timeline content.
type Timeline struct {
	ZoomSegments []ZoomSegment `json:"zoomSegments"`
}

// CursorSettings controls the drawn vector cursor.
type CursorSettings struct {
	Size            float64 `json:"size"`
	Color           string  `json:"color"`
	SmoothingFactor float64 `json:"smoothingFactor"`
}

// Background is the letterbox fill behind the framed viewport.
type Background struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// ExportSettings declares the output format.
type ExportSettings struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
	Codec  string `json:"codec"`
}

// Settings groups per-project options.
type Settings struct {
	Cursor     CursorSettings `json:"cursor"`
	Background Background     `json:"background"`
	Export     ExportSettings `json:"export"`
}

// DefaultSettings matches a fresh recording.
func DefaultSettings() Settings {
	return Settings{
		Cursor:     CursorSettings{Size: 1.0, Color: "#FFFFFF", SmoothingFactor: 0.8},
		Background: Background{Type: "solid", Color: "#1a1a2e"},
		Export:     ExportSettings{Width: 1920, Height: 1080, FPS: 30, Codec: "h264"},
	}
}

// Project is the root object of project.json. videoPath/eventsPath are
// relative to the project folder.
type Project struct {
	SchemaVersion int      `json:"schemaVersion"`
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CreatedAt     int64    `json:"createdAt"`
	VideoPath     string   `json:"videoPath"`
	EventsPath    string   `json:"eventsPath"`
	DurationMs    int64    `json:"durationMs"`
	VideoWidth    int      `json:"videoWidth"`
	VideoHeight   int      `json:"videoHeight"`
	Timeline      Timeline `json:"timeline"`
	Settings      Settings `json:"settings"`
}

// AspectRatio of the captured video.
func (p *Project) AspectRatio() float64 {
	if p.VideoHeight <= 0 {
		return 16.0 / 9.0
	}
	return float64(p.VideoWidth) / float64(p.VideoHeight)
}

// Load reads, migrates and validates a project document.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	if p.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: project schemaVersion %d, want %d",
			events.ErrSchemaMismatch, p.SchemaVersion, SchemaVersion)
	}

	p.MigrateLegacy()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the document. Legacy fields are never written back.
func (p *Project) Save(path string) error {
	p.MigrateLegacy()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}

// MigrateLegacy translates panTrajectory keyframes into target points and
// drops the legacy field. Segments that already carry target points keep
// them untouched.
func (p *Project) MigrateLegacy() {
	for i := range p.Timeline.ZoomSegments {
		seg := &p.Timeline.ZoomSegments[i]
		if len(seg.PanTrajectory) > 0 && len(seg.TargetPoints) == 0 {
			seg.TargetPoints = targetPointsFromPan(seg)
		}
		seg.PanTrajectory = nil
		if seg.Mode == "" {
			if len(seg.TargetPoints) > 0 {
				seg.Mode = ModeFollowCursor
			} else {
				seg.Mode = ModeFixed
			}
		}
		if seg.Trigger == "" {
			if seg.IsAuto {
				seg.Trigger = TriggerAutoClick
			} else {
				seg.Trigger = TriggerManual
			}
		}
		if seg.Spring == (CameraSpring{}) {
			seg.Spring = DefaultSpring()
		}
	}
}

func targetPointsFromPan(seg *ZoomSegment) []TargetPoint {
	pan := make([]PanKeyframe, len(seg.PanTrajectory))
	copy(pan, seg.PanTrajectory)
	sort.Slice(pan, func(i, j int) bool { return pan[i].TS < pan[j].TS })

	base := seg.InitialRect.Clamp()
	points := make([]TargetPoint, 0, len(pan)+2)
	points = append(points, TargetPoint{TS: seg.StartTS, Rect: base})
	for _, kf := range pan {
		if kf.TS < seg.StartTS || kf.TS > seg.EndTS {
			continue
		}
		shifted := geometry.Rect{
			X: base.X + kf.OffsetX,
			Y: base.Y + kf.OffsetY,
			W: base.W,
			H: base.H,
		}.Clamp()
		points = append(points, TargetPoint{TS: kf.TS, Rect: shifted})
	}
	if last := points[len(points)-1]; last.TS < seg.EndTS {
		points = append(points, TargetPoint{TS: seg.EndTS, Rect: last.Rect})
	}
	return points
}

// Validate checks the timeline invariants: valid rects, segment bounds
// inside the recording, strict ordering with no overlap.
func (p *Project) Validate() error {
	if p.DurationMs <= 0 {
		return fmt.Errorf("%w: durationMs %d", events.ErrInvariantViolation, p.DurationMs)
	}

	segs := p.Timeline.ZoomSegments
	for i, seg := range segs {
		if seg.Duration() < 1 {
			return fmt.Errorf("%w: segment %q has non-positive duration",
				events.ErrInvariantViolation, seg.ID)
		}
		if seg.StartTS < 0 || seg.EndTS > p.DurationMs+1 {
			return fmt.Errorf("%w: segment %q [%d,%d] outside recording of %d ms",
				events.ErrInvariantViolation, seg.ID, seg.StartTS, seg.EndTS, p.DurationMs)
		}
		if !seg.InitialRect.Valid() {
			return fmt.Errorf("%w: segment %q initialRect %+v",
				events.ErrInvariantViolation, seg.ID, seg.InitialRect)
		}
		for _, pt := range seg.TargetPoints {
			if !pt.Rect.Valid() {
				return fmt.Errorf("%w: segment %q target point at %d has rect %+v",
					events.ErrInvariantViolation, seg.ID, pt.TS, pt.Rect)
			}
		}
		if i > 0 && seg.StartTS < segs[i-1].EndTS {
			return fmt.Errorf("%w: segments %q and %q overlap",
				events.ErrInvariantViolation, segs[i-1].ID, seg.ID)
		}
		if seg.Mode == ModeFixed && len(seg.TargetPoints) > 0 {
			return fmt.Errorf("%w: fixed segment %q carries target points",
				events.ErrInvariantViolation, seg.ID)
		}
	}
	return nil
}
