package engine

import (
	"time"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/tracker"
)

// TrackingState is the engine lifecycle state. It is owned by the engine
// and only changes through the public transition methods.
type TrackingState int

const (
	StateIdle TrackingState = iota
	StateTracking
	StatePaused
	StateCalibrating
	StateError
)

// String returns the lowercase state name.
func (s TrackingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	case StateCalibrating:
		return "calibrating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText lets the state serialize as its name in JSON payloads.
func (s TrackingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FrameResult aggregates everything produced for one processed frame. It is
// immutable once constructed and handed to frame listeners as a value.
type FrameResult struct {
	Timestamp      time.Time         `json:"timestamp"`
	CursorPosition *tracker.Point    `json:"cursor_position,omitempty"`
	Click          click.Kind        `json:"click,omitempty"`
	Head           *tracker.Estimate `json:"head,omitempty"`
	Eye            *tracker.Estimate `json:"eye,omitempty"`
	Hand           *tracker.Estimate `json:"hand,omitempty"`
	LatencyMS      float64           `json:"latency_ms"`
}

// Valid reports whether the frame produced a cursor position.
func (r FrameResult) Valid() bool {
	return r.CursorPosition != nil
}
