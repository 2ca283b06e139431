// Package events models the write-once telemetry log (events.json,
// schemaVersion 1) produced by the capture collaborator. Coordinates are
// physical screen pixels; timestamps are milliseconds from startTimeMs.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const SchemaVersion = 1

// Sentinel errors shared by the schema loaders.
var (
	ErrSchemaMismatch     = errors.New("schema version mismatch")
	ErrInvariantViolation = errors.New("invariant violation")
)

// Event types.
const (
	TypeMove    = "move"
	TypeClick   = "click"
	TypeMouseUp = "mouseUp"
	TypeScroll  = "scroll"
	TypeKeyDown = "keyDown"
	TypeKeyUp   = "keyUp"
)

// Mouse buttons.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// BoundingRect is a UI element's bounds in physical screen pixels.
type BoundingRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UIContext is the UI Automation probe result attached to a click. Every
// field is optional; a missing BoundingRect is a first-class case.
type UIContext struct {
	AppName      string        `json:"appName,omitempty"`
	ControlName  string        `json:"controlName,omitempty"`
	BoundingRect *BoundingRect `json:"boundingRect,omitempty"`
}

// ScrollDelta is a wheel step. Values above ~100 in magnitude are raw
// pixel deltas, small values are line counts.
type ScrollDelta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// InputEvent is one telemetry record. Type selects which fields are
// meaningful: pointer events carry X/Y, scroll adds Delta, key events carry
// KeyCode only.
type InputEvent struct {
	Type      string       `json:"type"`
	TS        int64        `json:"ts"`
	X         float64      `json:"x,omitempty"`
	Y         float64      `json:"y,omitempty"`
	Button    string       `json:"button,omitempty"`
	UIContext *UIContext   `json:"uiContext,omitempty"`
	Delta     *ScrollDelta `json:"delta,omitempty"`
	KeyCode   string       `json:"keyCode,omitempty"`
}

// IsPointer reports whether the event carries cursor coordinates.
func (e InputEvent) IsPointer() bool {
	switch e.Type {
	case TypeMove, TypeClick, TypeMouseUp, TypeScroll:
		return true
	}
	return false
}

// File is the root object of events.json.
type File struct {
	SchemaVersion int          `json:"schemaVersion"`
	RecordingID   string       `json:"recordingId"`
	StartTimeMs   int64        `json:"startTimeMs"`
	ScreenWidth   int          `json:"screenWidth"`
	ScreenHeight  int          `json:"screenHeight"`
	ScaleFactor   float64      `json:"scaleFactor"`
	Events        []InputEvent `json:"events"`
}

// Load reads and validates an events file. A schema or invariant failure
// aborts the load; nothing is partially imported.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse events file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the schema version and the ordering/geometry invariants.
func (f *File) Validate() error {
	if f.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: events schemaVersion %d, want %d",
			ErrSchemaMismatch, f.SchemaVersion, SchemaVersion)
	}
	if f.ScreenWidth <= 0 || f.ScreenHeight <= 0 {
		return fmt.Errorf("%w: screen size %dx%d",
			ErrInvariantViolation, f.ScreenWidth, f.ScreenHeight)
	}
	if f.ScaleFactor <= 0 || f.ScaleFactor > 4 {
		return fmt.Errorf("%w: scaleFactor %g outside (0,4]",
			ErrInvariantViolation, f.ScaleFactor)
	}

	lastTS := int64(-1)
	for i, ev := range f.Events {
		if ev.TS < lastTS {
			return fmt.Errorf("%w: event %d ts %d before previous %d",
				ErrInvariantViolation, i, ev.TS, lastTS)
		}
		lastTS = ev.TS

		switch ev.Type {
		case TypeMove, TypeClick, TypeMouseUp, TypeScroll, TypeKeyDown, TypeKeyUp:
		default:
			return fmt.Errorf("%w: event %d has unknown type %q",
				ErrInvariantViolation, i, ev.Type)
		}
		if ev.Type == TypeScroll && ev.Delta == nil {
			return fmt.Errorf("%w: scroll event %d has no delta",
				ErrInvariantViolation, i)
		}
	}
	return nil
}

// Pointer returns the pointer-carrying events in timestamp order. The log
// itself is already sorted; this just filters.
func (f *File) Pointer() []InputEvent {
	out := make([]InputEvent, 0, len(f.Events))
	for _, ev := range f.Events {
		if ev.IsPointer() {
			out = append(out, ev)
		}
	}
	return out
}

// Clicks returns the click events in timestamp order.
func (f *File) Clicks() []InputEvent {
	out := make([]InputEvent, 0, len(f.Events))
	for _, ev := range f.Events {
		if ev.Type == TypeClick {
			out = append(out, ev)
		}
	}
	return out
}
