// Package cursor defines the actuation boundary: the engine hands final
// normalized positions and click events to an Actuator, which maps them to
// the operating system's pointer. Real OS actuation lives outside this
// module; this package ships the contract, the pixel-mapping helper, and
// test doubles.
package cursor

import (
	"log"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/tracker"
)

// Actuator moves the on-screen cursor and performs click actions.
type Actuator interface {
	// MoveTo positions the cursor at the normalized position, applying the
	// requested axis inversions before mapping to screen pixels.
	MoveTo(p tracker.Point, invertX, invertY bool) error

	// Click performs the pointing-device action for the given kind.
	Click(kind click.Kind) error
}

// ToPixels maps a normalized position to absolute screen pixels, applying
// axis inversion and clamping to the screen bounds. Implementations backed
// by a real pointer device share this mapping.
func ToPixels(p tracker.Point, invertX, invertY bool, width, height int) (int, int) {
	x, y := p.X, p.Y
	if invertX {
		x = 1.0 - x
	}
	if invertY {
		y = 1.0 - y
	}

	px := int(x * float64(width))
	py := int(y * float64(height))

	px = clamp(px, 0, width-1)
	py = clamp(py, 0, height-1)
	return px, py
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Logger is an Actuator that performs no OS actions. Moves are dropped
// silently (they arrive at frame rate); clicks are logged.
type Logger struct{}

// NewLogger creates a logging no-op actuator.
func NewLogger() *Logger { return &Logger{} }

// MoveTo discards the position.
func (l *Logger) MoveTo(p tracker.Point, invertX, invertY bool) error { return nil }

// Click logs the click kind.
func (l *Logger) Click(kind click.Kind) error {
	log.Printf("click: %s", kind)
	return nil
}
