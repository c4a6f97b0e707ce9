package cursor

import (
	"sync"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/tracker"
)

// Move records one MoveTo call.
type Move struct {
	Position tracker.Point
	InvertX  bool
	InvertY  bool
}

// Mock is a test Actuator that records every call.
type Mock struct {
	mu     sync.Mutex
	moves  []Move
	clicks []click.Kind
	err    error
}

// NewMock creates an empty recording actuator.
func NewMock() *Mock { return &Mock{} }

// SetError makes subsequent calls return err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// MoveTo records the move.
func (m *Mock) MoveTo(p tracker.Point, invertX, invertY bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.moves = append(m.moves, Move{Position: p, InvertX: invertX, InvertY: invertY})
	return nil
}

// Click records the click.
func (m *Mock) Click(kind click.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.clicks = append(m.clicks, kind)
	return nil
}

// Moves returns a copy of the recorded moves.
func (m *Mock) Moves() []Move {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Move(nil), m.moves...)
}

// Clicks returns a copy of the recorded clicks.
func (m *Mock) Clicks() []click.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]click.Kind(nil), m.clicks...)
}
