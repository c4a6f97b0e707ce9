// Package fusion combines per-modality position estimates into a single
// cursor position using weighted averaging.
package fusion

import (
	"errors"
	"sync"

	"github.com/ayusman/kursorin/internal/tracker"
)

// ErrNoValidModality is returned when every input is absent, invalid, or
// disabled. Callers recover by holding the previous cursor position.
var ErrNoValidModality = errors.New("no valid tracking modality available for fusion")

// Weights holds the configured per-channel reliability weights. Weights are
// relative; they are renormalized to sum to 1 before averaging.
type Weights struct {
	Head float64
	Eye  float64
	Hand float64
}

// Config selects which channels participate and how much each is trusted.
type Config struct {
	HeadEnabled bool
	EyeEnabled  bool
	HandEnabled bool
	Weights     Weights
}

// Engine fuses modality estimates. It holds no history; Fuse is a pure
// function of its inputs and the current configuration.
type Engine struct {
	mu     sync.RWMutex
	config Config
}

// New creates a fusion engine with the given configuration.
func New(config Config) *Engine {
	return &Engine{config: config}
}

// SetConfig replaces the configuration. Safe to call while frames are being
// fused.
func (e *Engine) SetConfig(config Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}

// Fuse combines the valid, enabled estimates into one normalized position.
//
// Each contributing channel enters with its configured weight. If the
// contributing weights sum to zero the channels are averaged with equal
// weights instead of failing; an all-zero weight configuration still
// produces a position. With no contributing channels at all, Fuse returns
// ErrNoValidModality.
func (e *Engine) Fuse(head, eye, hand *tracker.Estimate) (tracker.Point, error) {
	e.mu.RLock()
	cfg := e.config
	e.mu.RUnlock()

	var positions []tracker.Point
	var weights []float64

	if cfg.HeadEnabled && head != nil && head.Valid {
		positions = append(positions, head.Position)
		weights = append(weights, cfg.Weights.Head)
	}
	if cfg.EyeEnabled && eye != nil && eye.Valid {
		positions = append(positions, eye.Position)
		weights = append(weights, cfg.Weights.Eye)
	}
	if cfg.HandEnabled && hand != nil && hand.Valid {
		positions = append(positions, hand.Position)
		weights = append(weights, cfg.Weights.Hand)
	}

	if len(positions) == 0 {
		return tracker.Point{}, ErrNoValidModality
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		equal := 1.0 / float64(len(weights))
		for i := range weights {
			weights[i] = equal
		}
	} else {
		for i := range weights {
			weights[i] /= total
		}
	}

	var fused tracker.Point
	for i, p := range positions {
		fused.X += p.X * weights[i]
		fused.Y += p.Y * weights[i]
	}
	return fused, nil
}
