// Package filter provides adaptive low-pass smoothing for cursor movement.
//
// The filter follows the one-euro design: a first-order low-pass whose
// cutoff frequency rises with the estimated signal speed, so slow movement
// gets maximum jitter rejection while fast movement sees little lag.
// Reference: http://cristal.univ-lille.fr/~casiez/1euro/
package filter

import "math"

// DerivativeCutoff is the fixed cutoff frequency (Hz) used to low-pass the
// speed estimate.
const DerivativeCutoff = 1.0

// lowPass is a first-order exponential low-pass filter.
type lowPass struct {
	s      float64
	primed bool
}

func (l *lowPass) filter(value, alpha float64) float64 {
	if !l.primed {
		l.s = value
		l.primed = true
		return value
	}
	l.s = alpha*value + (1.0-alpha)*l.s
	return l.s
}

func (l *lowPass) last() float64 { return l.s }

func (l *lowPass) reset() {
	l.s = 0
	l.primed = false
}

// OneEuro filters a single axis. One instance is required per axis; there is
// no cross-axis coupling. The zero value is ready for use.
type OneEuro struct {
	x        lowPass
	dx       lowPass
	lastTime float64
	seeded   bool
}

// Filter smooths raw at timestamp t (seconds). The minCutoff and beta
// parameters are read fresh on every call, so tuning changes take effect
// without resetting filter state.
//
// The first call seeds the filter and returns raw unchanged. Calls with a
// non-positive time step return the previous output without mutating state.
func (f *OneEuro) Filter(raw, t, minCutoff, beta float64) float64 {
	if !f.seeded {
		f.seeded = true
		f.lastTime = t
		return f.x.filter(raw, 1.0)
	}

	dt := t - f.lastTime
	if dt <= 0 {
		return f.x.last()
	}
	f.lastTime = t

	// Smooth the derivative before using it to steer the cutoff, otherwise
	// measurement noise would defeat the adaptation.
	dx := (raw - f.x.last()) / dt
	edx := f.dx.filter(dx, alpha(dt, DerivativeCutoff))

	cutoff := minCutoff + beta*math.Abs(edx)
	return f.x.filter(raw, alpha(dt, cutoff))
}

// Reset clears all filter state. The next Filter call seeds anew.
func (f *OneEuro) Reset() {
	f.x.reset()
	f.dx.reset()
	f.lastTime = 0
	f.seeded = false
}

// alpha converts a cutoff frequency and time step into a smoothing
// coefficient in (0,1].
func alpha(dt, cutoff float64) float64 {
	tau := 1.0 / (2 * math.Pi * cutoff)
	return 1.0 / (1.0 + tau/dt)
}
