// Package calibration maps raw gaze estimates into screen-normalized space
// through a learned 2D projective transform.
package calibration

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/kursorin/internal/tracker"
)

// MinPoints is the minimum number of point pairs required to fit a
// projective transform.
const MinPoints = 4

var (
	// ErrCalibrationIncomplete is returned by Compute when fewer than
	// MinPoints pairs have been collected.
	ErrCalibrationIncomplete = errors.New("calibration incomplete: need at least 4 point pairs")

	// ErrCalibrationFit is returned when the estimator cannot produce a
	// transform from the collected pairs (degenerate geometry).
	ErrCalibrationFit = errors.New("calibration fit failed: degenerate point geometry")
)

// PointPair associates a raw gaze estimate with the screen target the user
// was asked to look at.
type PointPair struct {
	RawGaze      tracker.Point `json:"raw_gaze"`
	ScreenTarget tracker.Point `json:"screen_target"`
}

// Record is the JSON persistence format for a calibration: the collected
// pairs plus the fitted matrix when one exists.
type Record struct {
	Pairs  []PointPair    `json:"pairs"`
	Matrix *[3][3]float64 `json:"matrix,omitempty"`
}

// Model accumulates calibration point pairs and fits a homography over them.
// The fitted matrix is immutable until Reset; Map keeps returning identity
// positions while uncalibrated so the cursor pipeline never stalls on a
// missing calibration.
type Model struct {
	mu         sync.RWMutex
	pairs      []PointPair
	matrix     *mat.Dense
	calibrated bool
	rng        *rand.Rand
}

// NewModel creates an empty, uncalibrated model.
func NewModel() *Model {
	return &Model{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPoint appends a raw-gaze/screen-target pair to the training set.
func (m *Model) AddPoint(rawGaze, screenTarget tracker.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = append(m.pairs, PointPair{RawGaze: rawGaze, ScreenTarget: screenTarget})
}

// PointCount returns the number of collected pairs.
func (m *Model) PointCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pairs)
}

// IsCalibrated reports whether a transform has been fitted.
func (m *Model) IsCalibrated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calibrated
}

// Compute fits the projective transform from the collected pairs using a
// RANSAC consensus over direct-linear-transform solutions, tolerant to
// outlier pairs from noisy user clicks. Failure leaves any previously
// fitted matrix untouched.
func (m *Model) Compute() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pairs) < MinPoints {
		return ErrCalibrationIncomplete
	}

	h, err := fitHomography(m.pairs, m.rng)
	if err != nil {
		return err
	}

	m.matrix = h
	m.calibrated = true
	return nil
}

// Map transforms a raw gaze position into screen-normalized space. Before a
// successful Compute it returns the input unchanged.
func (m *Model) Map(raw tracker.Point) tracker.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.calibrated || m.matrix == nil {
		return raw
	}
	mapped := applyHomography(m.matrix, raw.X, raw.Y)
	return tracker.Point{X: mapped[0], Y: mapped[1]}
}

// Reset discards all pairs and any fitted transform.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = nil
	m.matrix = nil
	m.calibrated = false
}

// Snapshot captures the model state for persistence.
func (m *Model) Snapshot() Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := Record{Pairs: append([]PointPair(nil), m.pairs...)}
	if m.calibrated && m.matrix != nil {
		var h [3][3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h[i][j] = m.matrix.At(i, j)
			}
		}
		rec.Matrix = &h
	}
	return rec
}

// Restore replaces the model state from a persisted record. A record with a
// matrix restores the calibrated transform directly; one without leaves the
// model uncalibrated with the pairs loaded, ready for Compute.
func (m *Model) Restore(rec Record) error {
	if rec.Matrix != nil && len(rec.Pairs) < MinPoints {
		return ErrCalibrationIncomplete
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairs = append([]PointPair(nil), rec.Pairs...)
	m.matrix = nil
	m.calibrated = false
	if rec.Matrix != nil {
		h := mat.NewDense(3, 3, nil)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, rec.Matrix[i][j])
			}
		}
		m.matrix = h
		m.calibrated = true
	}
	return nil
}
