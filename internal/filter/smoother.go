package filter

import "github.com/ayusman/kursorin/internal/tracker"

// Smoother smooths a 2D cursor position with two independent per-axis
// one-euro filters. It persists for the lifetime of a tracking session and
// is reset when a new session starts.
type Smoother struct {
	x OneEuro
	y OneEuro
}

// NewSmoother creates a smoother with unseeded axis filters.
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Smooth filters the raw position at timestamp t (seconds) using the given
// tuning parameters. Parameters are forwarded per call so they hot-reload.
func (s *Smoother) Smooth(raw tracker.Point, t, minCutoff, beta float64) tracker.Point {
	return tracker.Point{
		X: s.x.Filter(raw.X, t, minCutoff, beta),
		Y: s.y.Filter(raw.Y, t, minCutoff, beta),
	}
}

// Reset clears both axis filters.
func (s *Smoother) Reset() {
	s.x.Reset()
	s.y.Reset()
}
