package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/kursorin/internal/tracker"
)

// addAffinePairs feeds the model pairs related by a known affine map
// (scale 0.8/0.6, offset 0.1/0.2), which a homography fits exactly.
func addAffinePairs(m *Model, raw []tracker.Point) {
	for _, r := range raw {
		m.AddPoint(r, tracker.Point{X: 0.1 + 0.8*r.X, Y: 0.2 + 0.6*r.Y})
	}
}

var cornerPoints = []tracker.Point{
	{X: 0.1, Y: 0.1},
	{X: 0.9, Y: 0.1},
	{X: 0.9, Y: 0.9},
	{X: 0.1, Y: 0.9},
}

func TestCompute_RequiresFourPoints(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints[:3])

	err := m.Compute()
	if !errors.Is(err, ErrCalibrationIncomplete) {
		t.Fatalf("expected ErrCalibrationIncomplete with 3 points, got %v", err)
	}
	if m.IsCalibrated() {
		t.Error("model should not be calibrated after a failed Compute")
	}
}

func TestCompute_FourWellSpreadPointsFit(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints)

	if err := m.Compute(); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !m.IsCalibrated() {
		t.Fatal("model should be calibrated after Compute")
	}

	// The fitted transform must reproduce every training target.
	for _, r := range cornerPoints {
		got := m.Map(r)
		want := tracker.Point{X: 0.1 + 0.8*r.X, Y: 0.2 + 0.6*r.Y}
		if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
			t.Errorf("Map(%v) = %v, want %v", r, got, want)
		}
	}
}

func TestCompute_ManyPointsWithOutlier(t *testing.T) {
	m := NewModel()
	raw := append([]tracker.Point{
		{X: 0.5, Y: 0.5},
		{X: 0.3, Y: 0.7},
		{X: 0.7, Y: 0.3},
		{X: 0.5, Y: 0.1},
		{X: 0.2, Y: 0.4},
	}, cornerPoints...)
	addAffinePairs(m, raw)
	// One bad pair from a mis-timed sample.
	m.AddPoint(tracker.Point{X: 0.5, Y: 0.9}, tracker.Point{X: 0.05, Y: 0.05})

	if err := m.Compute(); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// The consensus fit should ignore the outlier and map the clean points.
	probe := tracker.Point{X: 0.4, Y: 0.6}
	got := m.Map(probe)
	want := tracker.Point{X: 0.1 + 0.8*probe.X, Y: 0.2 + 0.6*probe.Y}
	if math.Abs(got.X-want.X) > 1e-3 || math.Abs(got.Y-want.Y) > 1e-3 {
		t.Errorf("Map(%v) = %v, want %v", probe, got, want)
	}
}

func TestCompute_CollinearPointsFail(t *testing.T) {
	m := NewModel()
	// All points on one line: no homography is determined.
	addAffinePairs(m, []tracker.Point{
		{X: 0.1, Y: 0.1},
		{X: 0.3, Y: 0.3},
		{X: 0.5, Y: 0.5},
		{X: 0.7, Y: 0.7},
	})

	err := m.Compute()
	if !errors.Is(err, ErrCalibrationFit) {
		t.Fatalf("expected ErrCalibrationFit for collinear points, got %v", err)
	}
	if m.IsCalibrated() {
		t.Error("model should not be calibrated after a degenerate fit")
	}
}

func TestMap_IdentityBeforeCompute(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints)

	p := tracker.Point{X: 0.33, Y: 0.66}
	if got := m.Map(p); got != p {
		t.Errorf("uncalibrated Map should be identity, got %v", got)
	}
}

func TestCompute_FailureKeepsPreviousFit(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints)
	if err := m.Compute(); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	before := m.Map(tracker.Point{X: 0.5, Y: 0.5})

	// Poison with collinear pairs and recompute: the fit fails but the old
	// transform stays in effect.
	m.mu.Lock()
	m.pairs = nil
	m.mu.Unlock()
	addAffinePairs(m, []tracker.Point{
		{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}, {X: 0.4, Y: 0.4},
	})
	if err := m.Compute(); !errors.Is(err, ErrCalibrationFit) {
		t.Fatalf("expected ErrCalibrationFit, got %v", err)
	}

	if got := m.Map(tracker.Point{X: 0.5, Y: 0.5}); got != before {
		t.Errorf("failed Compute should leave the matrix untouched: %v != %v", got, before)
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints)
	if err := m.Compute(); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	m.Reset()

	if m.PointCount() != 0 {
		t.Errorf("expected 0 points after Reset, got %d", m.PointCount())
	}
	if m.IsCalibrated() {
		t.Error("model should not be calibrated after Reset")
	}
	p := tracker.Point{X: 0.4, Y: 0.4}
	if got := m.Map(p); got != p {
		t.Errorf("Map should be identity after Reset, got %v", got)
	}
}

func TestSnapshotRestore_RoundTripsCalibration(t *testing.T) {
	m := NewModel()
	addAffinePairs(m, cornerPoints)
	if err := m.Compute(); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	rec := m.Snapshot()
	if rec.Matrix == nil {
		t.Fatal("snapshot of a calibrated model should carry a matrix")
	}

	restored := NewModel()
	if err := restored.Restore(rec); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !restored.IsCalibrated() {
		t.Fatal("restored model should be calibrated")
	}
	if restored.PointCount() != m.PointCount() {
		t.Errorf("restored %d points, want %d", restored.PointCount(), m.PointCount())
	}

	probe := tracker.Point{X: 0.25, Y: 0.75}
	a, b := m.Map(probe), restored.Map(probe)
	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Errorf("restored model maps %v, original maps %v", b, a)
	}
}

func TestRestore_MatrixWithTooFewPairsRejected(t *testing.T) {
	m := NewModel()
	rec := Record{
		Pairs:  []PointPair{{RawGaze: tracker.Point{X: 0.1, Y: 0.1}}},
		Matrix: &[3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}

	if err := m.Restore(rec); !errors.Is(err, ErrCalibrationIncomplete) {
		t.Fatalf("expected ErrCalibrationIncomplete, got %v", err)
	}
	if m.IsCalibrated() {
		t.Error("failed Restore should leave the model uncalibrated")
	}
}
