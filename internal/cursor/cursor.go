// Package cursor turns the raw pointer telemetry into the smoothed,
// normalized sample stream that both the preview and the export sample.
package cursor

import (
	"math"
	"sort"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/geometry"
)

// Click pulse shape: a press squeezes the cursor to PulseMinScale over
// PulseDownMs, then it relaxes back to 1.0 by PulseTotalMs.
const (
	PulseTotalMs  = 150.0
	PulseDownMs   = 65.0
	PulseMinScale = 0.82
)

// Sample is a cursor position normalized to the captured screen.
type Sample struct {
	TS      int64
	X       float64
	Y       float64
	IsClick bool
}

// Pipeline holds the processed sample stream for one recording.
type Pipeline struct {
	samples []Sample
	clicks  []int64
}

// New builds the pipeline from the telemetry log. smoothingFactor is
// clamped to [0,1]; 0 keeps the raw path, 1 applies the strongest lag
// (alpha 0.1). Click samples keep their exact raw coordinates so the drawn
// pointer lands where the user actually clicked.
func New(f *events.File, smoothingFactor float64) *Pipeline {
	sw := math.Max(float64(f.ScreenWidth), 1)
	sh := math.Max(float64(f.ScreenHeight), 1)

	raw := make([]Sample, 0, len(f.Events))
	clicks := make([]int64, 0, 16)
	for _, ev := range f.Events {
		if !ev.IsPointer() {
			continue
		}
		s := Sample{
			TS:      ev.TS,
			X:       geometry.Clamp01(ev.X / sw),
			Y:       geometry.Clamp01(ev.Y / sh),
			IsClick: ev.Type == events.TypeClick,
		}
		raw = append(raw, s)
		if s.IsClick {
			clicks = append(clicks, ev.TS)
		}
	}

	return &Pipeline{
		samples: smooth(dedupe(raw), smoothingFactor),
		clicks:  clicks,
	}
}

// Samples exposes the processed stream, strictly increasing in TS.
func (p *Pipeline) Samples() []Sample {
	return p.samples
}

// Clicks exposes the click timestamps in order.
func (p *Pipeline) Clicks() []int64 {
	return p.clicks
}

// At returns the interpolated cursor position at ts. Outside the sampled
// range the first/last sample is held.
func (p *Pipeline) At(ts int64) (float64, float64) {
	n := len(p.samples)
	if n == 0 {
		return 0.5, 0.5
	}
	if ts <= p.samples[0].TS {
		return p.samples[0].X, p.samples[0].Y
	}
	if ts >= p.samples[n-1].TS {
		return p.samples[n-1].X, p.samples[n-1].Y
	}

	// First sample strictly after ts.
	idx := sort.Search(n, func(i int) bool { return p.samples[i].TS > ts })
	left := p.samples[idx-1]
	right := p.samples[idx]
	span := float64(right.TS - left.TS)
	if span <= 0 {
		return right.X, right.Y
	}
	t := float64(ts-left.TS) / span
	return geometry.Lerp(left.X, right.X, t), geometry.Lerp(left.Y, right.Y, t)
}

// PulseScale is the click-pulse scaling signal at ts, anchored at the
// cursor tip. 1.0 means no active pulse.
func (p *Pipeline) PulseScale(ts int64) float64 {
	idx := sort.Search(len(p.clicks), func(i int) bool { return p.clicks[i] > ts })
	if idx == 0 {
		return 1.0
	}
	dt := float64(ts - p.clicks[idx-1])
	switch {
	case dt > PulseTotalMs:
		return 1.0
	case dt <= PulseDownMs:
		return 1.0 - (1.0-PulseMinScale)*(dt/PulseDownMs)
	default:
		return PulseMinScale + (1.0-PulseMinScale)*((dt-PulseDownMs)/(PulseTotalMs-PulseDownMs))
	}
}

// smooth applies the first-order exponential moving average
// out[i] = out[i-1] + alpha*(in[i] - out[i-1]) with alpha = 1 - 0.9*factor.
// The 0.9 coefficient is a contract shared with the preview shader, not a
// tunable. The filter state resets on click samples.
func smooth(in []Sample, factor float64) []Sample {
	factor = geometry.Clamp01(factor)
	if factor <= 0 || len(in) < 2 {
		return in
	}
	alpha := 1.0 - 0.9*factor

	out := make([]Sample, len(in))
	out[0] = in[0]
	x, y := in[0].X, in[0].Y
	for i := 1; i < len(in); i++ {
		s := in[i]
		if s.IsClick {
			x, y = s.X, s.Y
			out[i] = s
			continue
		}
		x += alpha * (s.X - x)
		y += alpha * (s.Y - y)
		out[i] = Sample{TS: s.TS, X: x, Y: y}
	}
	return out
}

// dedupe collapses samples sharing a timestamp, keeping the click-flagged
// one so pulse anchors survive.
func dedupe(in []Sample) []Sample {
	if len(in) == 0 {
		return in
	}
	out := in[:0]
	for _, s := range in {
		if len(out) > 0 && out[len(out)-1].TS == s.TS {
			if s.IsClick || !out[len(out)-1].IsClick {
				out[len(out)-1] = s
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
