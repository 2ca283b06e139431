// Package export drives batch frame production: it walks the output frame
// grid, composes each frame through the shared renderer, and feeds the
// encoder collaborator. Progress is published through an atomic status
// record; cancellation is a cooperative flag polled between frames.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neurochelplus/NeuroScreenCaster/internal/camera"
	"github.com/neurochelplus/NeuroScreenCaster/internal/cursor"
	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/renderer"
	"github.com/neurochelplus/NeuroScreenCaster/internal/system"
	"github.com/neurochelplus/NeuroScreenCaster/internal/video"
)

// Job is one export request with every path already resolved.
type Job struct {
	Project    *project.Project
	Events     *events.File
	VideoPath  string
	OutputPath string
	// DebugStamp burns a parity stamp (recording id + frame index QR)
	// into a corner of every frame for preview/export drift triage.
	DebugStamp bool
}

// Driver owns one export session at a time. The encoder handle and the
// decoded video handle are scoped to Run and released on every exit path.
type Driver struct {
	encoder   video.Encoder
	status    statusHolder
	cancelled atomic.Bool

	// openSource is swappable so tests can feed synthetic frames.
	openSource func(path string) (video.Source, error)
}

// NewDriver binds the driver to an encoder collaborator.
func NewDriver(enc video.Encoder) *Driver {
	d := &Driver{
		encoder: enc,
		openSource: func(path string) (video.Source, error) {
			return video.OpenSource(path)
		},
	}
	d.status.store(Status{})
	return d
}

// Status returns the latest progress snapshot.
func (d *Driver) Status() Status {
	return d.status.load()
}

// Cancel requests a cooperative stop. Safe from any goroutine.
func (d *Driver) Cancel() {
	d.cancelled.Store(true)
}

// Run performs the export synchronously. The caller typically runs it on
// one worker goroutine and polls Status from the UI. The driver never
// retries; encoder failures and cancellation are both terminal.
func (d *Driver) Run(ctx context.Context, job Job) error {
	d.cancelled.Store(false)
	started := time.Now().UnixMilli()
	d.status.store(Status{
		IsRunning:   true,
		Message:     "подготовка экспорта",
		OutputPath:  job.OutputPath,
		StartedAtMs: started,
	})

	err := d.run(ctx, job, started)
	switch {
	case err == nil:
		d.status.store(Status{
			Progress:     1,
			Message:      "готово",
			OutputPath:   job.OutputPath,
			StartedAtMs:  started,
			FinishedAtMs: time.Now().UnixMilli(),
		})
	case errors.Is(err, ErrCancelled):
		// Cancel tears the encoder down and discards the partial file.
		os.Remove(job.OutputPath)
		d.status.store(Status{
			Progress:     d.status.load().Progress,
			Message:      "экспорт отменен",
			Error:        "cancelled",
			StartedAtMs:  started,
			FinishedAtMs: time.Now().UnixMilli(),
		})
	default:
		d.status.store(Status{
			Progress:     d.status.load().Progress,
			Message:      "экспорт прерван",
			Error:        err.Error(),
			StartedAtMs:  started,
			FinishedAtMs: time.Now().UnixMilli(),
		})
	}
	return err
}

func (d *Driver) run(ctx context.Context, job Job, started int64) error {
	p := job.Project
	exp := p.Settings.Export
	if exp.Width <= 0 || exp.Height <= 0 || exp.FPS <= 0 {
		return fmt.Errorf("некорректные настройки экспорта: %dx%d @ %d",
			exp.Width, exp.Height, exp.FPS)
	}

	src, err := d.openSource(job.VideoPath)
	if err != nil {
		return err
	}
	defer src.Close()
	probe := src.Probe()

	cur := cursor.New(job.Events, p.Settings.Cursor.SmoothingFactor)

	segs := make([]project.ZoomSegment, len(p.Timeline.ZoomSegments))
	copy(segs, p.Timeline.ZoomSegments)
	camera.PrepareSegments(segs, cur, job.Events.ScreenWidth, job.Events.ScreenHeight)

	// Integrate at the actual output cadence, never downsample a preview
	// track.
	track := camera.BuildTrack(segs, p.DurationMs, float64(exp.FPS))
	composer := renderer.NewComposer(track, cur, p.Settings.Cursor,
		exp.Width, exp.Height, p.DurationMs, probe.DurationMs)
	frameRenderer := renderer.NewFrameRenderer(composer,
		backgroundColor(p.Settings.Background), p.Settings.Cursor.Color)

	var stamp *parityStamp
	if job.DebugStamp {
		stamp = newParityStamp(p.ID, exp.Width, exp.Height)
	}

	if err := d.encoder.Open(ctx, job.OutputPath, exp.Width, exp.Height, exp.FPS); err != nil {
		return err
	}
	encoderOpen := true
	defer func() {
		if encoderOpen {
			d.encoder.Close()
		}
	}()

	frameStepMs := 1000.0 / float64(exp.FPS)
	totalFrames := int(math.Ceil(float64(probe.DurationMs)/frameStepMs)) + 1

	pool := system.NewFramePool(exp.Width, exp.Height)
	// Кадров в полете не больше числа воркеров, но максимум 4 — иначе
	// отмена между кадрами перестает быть отзывчивой.
	inFlight := system.RenderWorkers(exp.Width, exp.Height)
	if inFlight > 4 {
		inFlight = 4
	}
	frames := make(chan *image.RGBA, inFlight)

	g, gctx := errgroup.WithContext(ctx)

	// Composer side: sequential decode, per-frame composition.
	g.Go(func() error {
		defer close(frames)

		if !src.Next() {
			return fmt.Errorf("%w: в видео нет кадров", video.ErrResourceUnavailable)
		}
		srcFrameIdx := 0
		srcStepMs := 1000.0 / math.Max(probe.FPS, 1)

		for frame := 0; frame < totalFrames; frame++ {
			if d.cancelled.Load() {
				return ErrCancelled
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}

			mediaMs := int64(math.Round(float64(frame) * frameStepMs))

			// Hold the current source frame until the next one is due.
			for float64(srcFrameIdx+1)*srcStepMs <= float64(mediaMs) && src.Next() {
				srcFrameIdx++
			}

			out := pool.Get()
			frameRenderer.Render(out, src.Frame(), mediaMs)
			if stamp != nil {
				stamp.draw(out, frame)
			}

			select {
			case frames <- out:
			case <-gctx.Done():
				pool.Put(out)
				return gctx.Err()
			}

			d.status.store(Status{
				IsRunning:   true,
				Progress:    float64(frame+1) / float64(totalFrames),
				Message:     fmt.Sprintf("кадр %d/%d", frame+1, totalFrames),
				OutputPath:  job.OutputPath,
				StartedAtMs: started,
			})
		}
		return nil
	})

	// Encoder side: preserves frame order by construction.
	g.Go(func() error {
		for frame := range frames {
			err := d.encoder.WriteFrame(frame)
			pool.Put(frame)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	encoderOpen = false
	if err := d.encoder.Close(); err != nil {
		return err
	}
	return nil
}

func backgroundColor(bg project.Background) string {
	// Gradient rendering belongs to the GPU preview; the export letterbox
	// uses the solid color, falling back to the gradient start.
	if bg.Color != "" {
		return bg.Color
	}
	if bg.From != "" {
		return bg.From
	}
	return "#000000"
}
