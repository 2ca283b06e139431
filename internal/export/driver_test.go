package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/video"
)

// fakeSource serves a fixed number of synthetic frames.
type fakeSource struct {
	probe  video.Probe
	frame  *image.RGBA
	served int
	closed bool
}

func newFakeSource(w, h, frameCount int, fps float64) *fakeSource {
	return &fakeSource{
		probe: video.Probe{
			Width: w, Height: h, FPS: fps,
			DurationMs: int64(float64(frameCount) / fps * 1000),
		},
		frame:  image.NewRGBA(image.Rect(0, 0, w, h)),
		served: 0,
	}
}

func (f *fakeSource) Probe() video.Probe { return f.probe }
func (f *fakeSource) Next() bool {
	max := int(float64(f.probe.DurationMs) / 1000 * f.probe.FPS)
	if f.served >= max {
		return false
	}
	f.served++
	return true
}
func (f *fakeSource) Frame() *image.RGBA { return f.frame }
func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// fakeEncoder records frames and can fail on demand.
type fakeEncoder struct {
	mu         sync.Mutex
	opened     bool
	closed     bool
	frames     int
	failAt     int // fail WriteFrame when frames reaches this (0 = never)
	writeDelay func()
}

func (e *fakeEncoder) Open(ctx context.Context, path string, w, h, fps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened = true
	return nil
}

func (e *fakeEncoder) WriteFrame(frame *image.RGBA) error {
	if e.writeDelay != nil {
		e.writeDelay()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames++
	if e.failAt > 0 && e.frames >= e.failAt {
		return fmt.Errorf("%w: кодек отвалился", video.ErrResourceUnavailable)
	}
	return nil
}

func (e *fakeEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEncoder) frameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func testJob(t *testing.T) Job {
	t.Helper()
	evs := &events.File{
		SchemaVersion: events.SchemaVersion,
		RecordingID:   "5b8f7f52-4bb7-4df0-91f1-45b17a2f5c90",
		ScreenWidth:   640,
		ScreenHeight:  360,
		ScaleFactor:   1,
		Events: []events.InputEvent{
			{Type: events.TypeMove, TS: 0, X: 320, Y: 180},
			{Type: events.TypeClick, TS: 500, X: 330, Y: 190, Button: events.ButtonLeft},
		},
	}
	p := &project.Project{
		SchemaVersion: project.SchemaVersion,
		ID:            evs.RecordingID,
		Name:          "test",
		DurationMs:    1000,
		VideoWidth:    640,
		VideoHeight:   360,
		Timeline: project.Timeline{ZoomSegments: []project.ZoomSegment{{
			ID: "auto-1", StartTS: 200, EndTS: 800,
			InitialRect: geometry.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			Spring:      project.DefaultSpring(),
			Mode:        project.ModeFollowCursor,
			Trigger:     project.TriggerAutoClick,
			IsAuto:      true,
			TargetPoints: []project.TargetPoint{
				{TS: 200, Rect: geometry.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}},
			},
		}}},
		Settings: project.Settings{
			Cursor:     project.CursorSettings{Size: 1, Color: "#FFFFFF", SmoothingFactor: 0.5},
			Background: project.Background{Type: "solid", Color: "#1a1a2e"},
			Export:     project.ExportSettings{Width: 320, Height: 180, FPS: 10, Codec: "h264"},
		},
	}
	return Job{
		Project:    p,
		Events:     evs,
		VideoPath:  "raw.mp4",
		OutputPath: t.TempDir() + "/out.mp4",
	}
}

func driverWithFakes(src *fakeSource, enc *fakeEncoder) *Driver {
	d := NewDriver(enc)
	d.openSource = func(string) (video.Source, error) { return src, nil }
	return d
}

func TestRunExportsAllFrames(t *testing.T) {
	src := newFakeSource(640, 360, 30, 30) // 1 second of source
	enc := &fakeEncoder{}
	d := driverWithFakes(src, enc)

	if err := d.Run(context.Background(), testJob(t)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 1000 ms at 10 fps: frames 0..10 inclusive.
	if got := enc.frameCount(); got != 11 {
		t.Errorf("encoded %d frames, want 11", got)
	}

	st := d.Status()
	if st.IsRunning {
		t.Error("status still running after completion")
	}
	if st.Progress != 1 {
		t.Errorf("progress = %f, want 1", st.Progress)
	}
	if st.Error != "" {
		t.Errorf("unexpected error in status: %q", st.Error)
	}
	if st.FinishedAtMs == 0 || st.StartedAtMs == 0 {
		t.Error("missing timing fields in terminal status")
	}
	if !src.closed {
		t.Error("source handle leaked")
	}
}

func TestCancelProducesCancelledStatus(t *testing.T) {
	src := newFakeSource(640, 360, 30, 30)
	enc := &fakeEncoder{}
	d := driverWithFakes(src, enc)
	d.Cancel() // a cancel requested before Run is discarded

	// Run resets the flag, so request cancel from the write path instead.
	enc.writeDelay = func() { d.Cancel() }

	err := d.Run(context.Background(), testJob(t))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	st := d.Status()
	if st.Error != "cancelled" {
		t.Errorf("status error = %q, want \"cancelled\"", st.Error)
	}
	if st.IsRunning {
		t.Error("cancelled export still marked running")
	}
	if !enc.closed {
		t.Error("encoder not torn down on cancel")
	}
}

func TestEncoderFailureIsTerminal(t *testing.T) {
	src := newFakeSource(640, 360, 30, 30)
	enc := &fakeEncoder{failAt: 3}
	d := driverWithFakes(src, enc)

	err := d.Run(context.Background(), testJob(t))
	if err == nil {
		t.Fatal("expected encoder failure to propagate")
	}
	if errors.Is(err, ErrCancelled) {
		t.Fatal("failure must not masquerade as cancel")
	}

	st := d.Status()
	if st.Error == "" {
		t.Error("terminal status missing error")
	}
	if st.IsRunning {
		t.Error("failed export still marked running")
	}
}

func TestMissingVideoSurfacesResourceError(t *testing.T) {
	enc := &fakeEncoder{}
	d := NewDriver(enc) // real openSource, nonexistent path
	job := testJob(t)
	job.VideoPath = "/nonexistent/raw.mp4"

	err := d.Run(context.Background(), job)
	if !errors.Is(err, video.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestRejectsBadExportSettings(t *testing.T) {
	src := newFakeSource(640, 360, 30, 30)
	enc := &fakeEncoder{}
	d := driverWithFakes(src, enc)

	job := testJob(t)
	job.Project.Settings.Export.FPS = 0
	if err := d.Run(context.Background(), job); err == nil {
		t.Fatal("expected settings validation error")
	}
}
