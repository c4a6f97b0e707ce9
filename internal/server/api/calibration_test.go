package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/kursorin/internal/calibration"
	"github.com/ayusman/kursorin/internal/store"
	"github.com/ayusman/kursorin/internal/tracker"
)

// fakeEngine implements the Engine interface over a real calibration model
// with a fixed raw gaze sample.
type fakeEngine struct {
	model   *calibration.Model
	rawGaze tracker.Point
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		model:   calibration.NewModel(),
		rawGaze: tracker.Point{X: 0.5, Y: 0.5},
	}
}

func (f *fakeEngine) Calibration() *calibration.Model { return f.model }

func (f *fakeEngine) LoadCalibration(rec calibration.Record) error {
	return f.model.Restore(rec)
}

func (f *fakeEngine) AddCalibrationPoint(screenTarget tracker.Point) error {
	f.model.AddPoint(f.rawGaze, screenTarget)
	return nil
}

func newTestHandler(t *testing.T) (*CalibrationHandler, *store.Store, *fakeEngine) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eng := newFakeEngine()
	return NewCalibrationHandler(st, eng), st, eng
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func calibratedRecordJSON(t *testing.T) string {
	t.Helper()
	rec := calibration.Record{
		Pairs: []calibration.PointPair{
			{RawGaze: tracker.Point{X: 0.1, Y: 0.1}, ScreenTarget: tracker.Point{X: 0, Y: 0}},
			{RawGaze: tracker.Point{X: 0.9, Y: 0.1}, ScreenTarget: tracker.Point{X: 1, Y: 0}},
			{RawGaze: tracker.Point{X: 0.9, Y: 0.9}, ScreenTarget: tracker.Point{X: 1, Y: 1}},
			{RawGaze: tracker.Point{X: 0.1, Y: 0.9}, ScreenTarget: tracker.Point{X: 0, Y: 1}},
		},
		Matrix: &[3][3]float64{{1.25, 0, -0.125}, {0, 1.25, -0.125}, {0, 0, 1}},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}
	return string(b)
}

func TestCalibration_CreateAndList(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/calibration",
		`{"name":"desk","record":`+calibratedRecordJSON(t)+`}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var created profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated profile ID")
	}
	if created.Name != "desk" {
		t.Errorf("expected name desk, got %q", created.Name)
	}

	rec = do(t, h, http.MethodGet, "/api/calibration", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("expected the created profile in the list, got %v", list)
	}
}

func TestCalibration_CreateRequiresName(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/calibration", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", rec.Code)
	}
}

func TestCalibration_CreateSnapshotsEngineState(t *testing.T) {
	h, _, eng := newTestHandler(t)

	// Without an explicit record, the profile captures the engine's
	// collected points.
	eng.model.AddPoint(tracker.Point{X: 0.2, Y: 0.2}, tracker.Point{X: 0, Y: 0})
	eng.model.AddPoint(tracker.Point{X: 0.8, Y: 0.8}, tracker.Point{X: 1, Y: 1})

	rec := do(t, h, http.MethodPost, "/api/calibration", `{"name":"live"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	if len(created.Record.Pairs) != 2 {
		t.Errorf("expected 2 snapshotted pairs, got %d", len(created.Record.Pairs))
	}
}

func TestCalibration_GetAndDelete(t *testing.T) {
	h, st, _ := newTestHandler(t)

	p := &store.Profile{ID: "p1", Name: "office"}
	if err := st.Profiles().Create(p); err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/api/calibration/p1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/calibration/p1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/calibration/p1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCalibration_Activate(t *testing.T) {
	h, st, eng := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/calibration",
		`{"name":"desk","record":`+calibratedRecordJSON(t)+`}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}

	rec = do(t, h, http.MethodPost, "/api/calibration/"+created.ID+"/activate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if !eng.model.IsCalibrated() {
		t.Error("activation should load the calibration into the engine")
	}
	active, err := st.Settings().Get(store.ActiveProfileKey)
	if err != nil {
		t.Fatalf("failed to read active profile setting: %v", err)
	}
	if active != created.ID {
		t.Errorf("expected active profile %s, got %s", created.ID, active)
	}
}

func TestCalibration_ActivateMissing(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/calibration/nope/activate", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCalibration_PointComputeReset(t *testing.T) {
	h, _, eng := newTestHandler(t)

	// Sample four targets while the fake engine walks the raw gaze.
	targets := []tracker.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	raws := []tracker.Point{{X: 0.2, Y: 0.2}, {X: 0.8, Y: 0.2}, {X: 0.8, Y: 0.8}, {X: 0.2, Y: 0.8}}
	for i, target := range targets {
		eng.rawGaze = raws[i]
		b, _ := json.Marshal(map[string]float64{"x": target.X, "y": target.Y})
		rec := do(t, h, http.MethodPost, "/api/calibration/point", string(b))
		if rec.Code != http.StatusOK {
			t.Fatalf("point %d: expected 200, got %d (%s)", i, rec.Code, rec.Body.String())
		}
	}
	if n := eng.model.PointCount(); n != 4 {
		t.Fatalf("expected 4 collected points, got %d", n)
	}

	rec := do(t, h, http.MethodPost, "/api/calibration/compute", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from compute, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !eng.model.IsCalibrated() {
		t.Error("compute should calibrate the model")
	}

	rec = do(t, h, http.MethodPost, "/api/calibration/reset", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from reset, got %d", rec.Code)
	}
	if eng.model.IsCalibrated() || eng.model.PointCount() != 0 {
		t.Error("reset should clear the model")
	}
}

func TestCalibration_ComputeWithTooFewPoints(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/calibration/compute", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestCalibration_MethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPut, "/api/calibration", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
