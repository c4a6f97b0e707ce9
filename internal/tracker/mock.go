package tracker

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock is a test implementation of the Tracker interface. It returns a
// pre-configured estimate or error for every frame.
type Mock struct {
	mu       sync.Mutex
	estimate Estimate
	err      error
	calls    int
	closed   bool
}

// NewMock creates a Mock that reports an invalid estimate until configured.
func NewMock() *Mock {
	return &Mock{}
}

// SetEstimate sets the estimate returned by Process.
func (m *Mock) SetEstimate(e Estimate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimate = e
}

// SetError sets the error returned by Process.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Process returns the configured estimate or error.
func (m *Mock) Process(frame *gocv.Mat) (Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Estimate{}, m.err
	}
	return m.estimate, nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many frames were processed.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ValidGaze returns an estimate representing a steady gaze at the given
// normalized position with fully open eyes.
func ValidGaze(x, y float64) Estimate {
	return Estimate{
		Valid:      true,
		Position:   Point{X: x, Y: y},
		Confidence: 1.0,
		Eye: &EyeMetadata{
			EAR:      0.3,
			LeftEAR:  0.3,
			RightEAR: 0.3,
			GazeX:    x,
			GazeY:    y,
		},
	}
}

// ValidHand returns an estimate representing an open hand at the given
// normalized position, fingers apart.
func ValidHand(x, y float64) Estimate {
	return Estimate{
		Valid:      true,
		Position:   Point{X: x, Y: y},
		Confidence: 1.0,
		Hand: &HandMetadata{
			PinchDistance: 0.2,
			Gesture:       GestureOpenPalm,
		},
	}
}
