// Package click turns modality metadata and cursor motion into discrete
// click events using blink, pinch, and dwell heuristics.
package click

import (
	"math"
	"sync"
	"time"

	"github.com/ayusman/kursorin/internal/tracker"
)

// Kind identifies a pointing-device action.
type Kind string

const (
	None   Kind = ""
	Left   Kind = "left"
	Right  Kind = "right"
	Double Kind = "double"
)

// Config holds thresholds and timings for the three click methods. Each
// method is independently enabled.
type Config struct {
	BlinkEnabled     bool
	BlinkThreshold   float64 // eye-aspect-ratio below this counts as closed
	BlinkMinDuration time.Duration
	BlinkMaxDuration time.Duration

	PinchEnabled      bool
	PinchThreshold    float64 // normalized thumb-index distance
	PinchHoldDuration time.Duration

	DwellEnabled  bool
	DwellRadius   float64 // normalized displacement tolerance
	DwellDuration time.Duration
}

// Detector evaluates the click methods once per frame. Methods are checked
// in fixed priority order (blink, pinch, dwell); the first to fire wins and
// at most one click is emitted per frame.
//
// Each method keeps its own latch or anchor across frames. A frame where a
// method's input is absent skips that method without touching its state, so
// a momentary tracking dropout does not reset a dwell in progress.
type Detector struct {
	mu     sync.Mutex
	config Config

	blinkStart time.Time // eye-closure latch; zero when unset
	pinchStart time.Time // pinch-hold latch; zero when unset

	dwellAnchor *tracker.Point
	dwellStart  time.Time
}

// NewDetector creates a detector with the given configuration.
func NewDetector(config Config) *Detector {
	return &Detector{config: config}
}

// SetConfig replaces the configuration without clearing method state.
func (d *Detector) SetConfig(config Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = config
}

// Reset clears all latches and anchors. Called when a session starts.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blinkStart = time.Time{}
	d.pinchStart = time.Time{}
	d.dwellAnchor = nil
	d.dwellStart = time.Time{}
}

// Detect evaluates all enabled methods against this frame's inputs. The
// caller supplies the frame timestamp so the detector itself never consults
// the wall clock.
func (d *Detector) Detect(eye, hand *tracker.Estimate, cursor *tracker.Point, now time.Time) Kind {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config.BlinkEnabled && eye != nil && eye.Valid && eye.Eye != nil {
		if k := d.checkBlink(eye.Eye, now); k != None {
			return k
		}
	}
	if d.config.PinchEnabled && hand != nil && hand.Valid && hand.Hand != nil {
		if k := d.checkPinch(hand.Hand, now); k != None {
			return k
		}
	}
	if d.config.DwellEnabled && cursor != nil {
		return d.checkDwell(*cursor, now)
	}
	return None
}

// checkBlink latches while the eye-aspect-ratio stays below threshold and
// classifies the closure when it ends. Too short is noise; too long is a
// deliberate eye closure, not a click.
func (d *Detector) checkBlink(meta *tracker.EyeMetadata, now time.Time) Kind {
	if meta.EAR < d.config.BlinkThreshold {
		if d.blinkStart.IsZero() {
			d.blinkStart = now
		}
		return None
	}

	if d.blinkStart.IsZero() {
		return None
	}
	duration := now.Sub(d.blinkStart)
	d.blinkStart = time.Time{}

	if duration >= d.config.BlinkMinDuration && duration <= d.config.BlinkMaxDuration {
		return Left
	}
	return None
}

// checkPinch fires once the pinch distance has been held below threshold for
// the configured duration. Any sample at or above threshold clears the latch.
func (d *Detector) checkPinch(meta *tracker.HandMetadata, now time.Time) Kind {
	if meta.PinchDistance >= d.config.PinchThreshold {
		d.pinchStart = time.Time{}
		return None
	}

	if d.pinchStart.IsZero() {
		d.pinchStart = now
		return None
	}
	if now.Sub(d.pinchStart) >= d.config.PinchHoldDuration {
		d.pinchStart = time.Time{}
		return Left
	}
	return None
}

// checkDwell anchors the cursor position and fires once it has stayed within
// the radius tolerance for the dwell duration. Movement past tolerance
// restarts the cycle; a click clears the anchor so a fresh cycle is required
// before the next one.
func (d *Detector) checkDwell(pos tracker.Point, now time.Time) Kind {
	if d.dwellAnchor == nil || displacement(pos, *d.dwellAnchor) > d.config.DwellRadius {
		anchor := pos
		d.dwellAnchor = &anchor
		d.dwellStart = now
		return None
	}

	if now.Sub(d.dwellStart) >= d.config.DwellDuration {
		d.dwellAnchor = nil
		d.dwellStart = time.Time{}
		return Left
	}
	return None
}

func displacement(a, b tracker.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
