package export

import (
	"errors"
	"sync/atomic"
)

// ErrCancelled marks a cooperative cancel: terminal, reported distinctly,
// but not a failure.
var ErrCancelled = errors.New("cancelled")

// Status is the export progress record read by the UI. It is published
// whole through an atomic pointer; readers never lock.
type Status struct {
	IsRunning    bool
	Progress     float64
	Message      string
	OutputPath   string
	Error        string
	StartedAtMs  int64
	FinishedAtMs int64
}

// statusHolder publishes Status snapshots atomically.
type statusHolder struct {
	v atomic.Pointer[Status]
}

func (h *statusHolder) load() Status {
	if s := h.v.Load(); s != nil {
		return *s
	}
	return Status{}
}

func (h *statusHolder) store(s Status) {
	h.v.Store(&s)
}
