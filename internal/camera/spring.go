package camera

import "github.com/neurochelplus/NeuroScreenCaster/internal/project"

// Integration step bounds, seconds. The lower bound keeps degenerate
// frame cadences from stalling the spring, the upper bound keeps a long
// gap from overshooting it.
const (
	minSpringDt = 1e-4
	maxSpringDt = 0.1
)

// axisSpring is one second-order spring axis. Velocity survives across
// segment boundaries so the camera never snaps.
type axisSpring struct {
	value    float64
	velocity float64
}

func (s *axisSpring) step(target, dt float64, sp project.CameraSpring) {
	if dt < minSpringDt {
		dt = minSpringDt
	}
	if dt > maxSpringDt {
		dt = maxSpringDt
	}
	accel := ((target-s.value)*sp.Stiffness - sp.Damping*s.velocity) / sp.Mass
	s.velocity += accel * dt
	s.value += s.velocity * dt
}

// rectSprings integrates a viewport rectangle as four independent axes.
type rectSprings struct {
	x, y, w, h axisSpring
}

func newRectSprings(x, y, w, h float64) rectSprings {
	return rectSprings{
		x: axisSpring{value: x},
		y: axisSpring{value: y},
		w: axisSpring{value: w},
		h: axisSpring{value: h},
	}
}

func (r *rectSprings) step(tx, ty, tw, th, dt float64, sp project.CameraSpring) {
	r.x.step(tx, dt, sp)
	r.y.step(ty, dt, sp)
	r.w.step(tw, dt, sp)
	r.h.step(th, dt, sp)
}
