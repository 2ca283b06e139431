// Package video holds the media collaborators: the raw-capture reader and
// probe (Vidio over ffmpeg) and the RGBA-pipe output encoder. Both sides
// of the pipeline treat these as replaceable interfaces.
package video

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	vidio "github.com/AlexEidt/Vidio"
)

// ErrResourceUnavailable marks a missing or unreadable media resource.
var ErrResourceUnavailable = errors.New("resource unavailable")

// Probe describes a decoded video file.
type Probe struct {
	Width      int
	Height     int
	FPS        float64
	DurationMs int64
}

// Source reads the raw capture sequentially, one RGBA frame at a time.
type Source interface {
	Probe() Probe
	// Next decodes the following frame into the internal buffer. Returns
	// false at end of stream.
	Next() bool
	// Frame exposes the current frame. The buffer is reused between Next
	// calls.
	Frame() *image.RGBA
	Close() error
}

// FileSource decodes a video file through Vidio's ffmpeg pipe.
type FileSource struct {
	video *vidio.Video
	frame *image.RGBA
}

// OpenSource opens the raw capture for sequential decoding.
func OpenSource(path string) (*FileSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: video file %s: %v", ErrResourceUnavailable, path, err)
	}
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open video %s: %v", ErrResourceUnavailable, path, err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, v.Width(), v.Height()))
	v.SetFrameBuffer(frame.Pix)
	return &FileSource{video: v, frame: frame}, nil
}

func (s *FileSource) Probe() Probe {
	return Probe{
		Width:      s.video.Width(),
		Height:     s.video.Height(),
		FPS:        s.video.FPS(),
		DurationMs: int64(math.Round(s.video.Duration() * 1000)),
	}
}

func (s *FileSource) Next() bool {
	return s.video.Read()
}

func (s *FileSource) Frame() *image.RGBA {
	return s.frame
}

func (s *FileSource) Close() error {
	s.video.Close()
	return nil
}

// ProbeFile reports a file's dimensions without keeping it open.
func ProbeFile(path string) (Probe, error) {
	src, err := OpenSource(path)
	if err != nil {
		return Probe{}, err
	}
	defer src.Close()
	return src.Probe(), nil
}
