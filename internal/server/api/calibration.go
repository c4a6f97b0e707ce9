// Package api provides HTTP API handlers for the kursorin control surface.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/kursorin/internal/calibration"
	"github.com/ayusman/kursorin/internal/store"
	"github.com/ayusman/kursorin/internal/tracker"
)

// Engine is the slice of the processing engine the calibration API needs.
type Engine interface {
	Calibration() *calibration.Model
	LoadCalibration(rec calibration.Record) error
	AddCalibrationPoint(screenTarget tracker.Point) error
}

// CalibrationHandler handles HTTP requests for calibration resources.
type CalibrationHandler struct {
	store  *store.Store
	engine Engine
}

// NewCalibrationHandler creates a CalibrationHandler over the given store
// and engine.
func NewCalibrationHandler(s *store.Store, e Engine) *CalibrationHandler {
	return &CalibrationHandler{store: s, engine: e}
}

// ServeHTTP routes calibration requests.
//
// Collection:   GET/POST /api/calibration
// Workflow:     POST /api/calibration/point, /compute, /reset
// Item:         GET/DELETE /api/calibration/{id}
// Activation:   POST /api/calibration/{id}/activate
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibration")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case path == "point" && r.Method == http.MethodPost:
		h.addPoint(w, r)
	case path == "compute" && r.Method == http.MethodPost:
		h.compute(w, r)
	case path == "reset" && r.Method == http.MethodPost:
		h.reset(w, r)
	case strings.HasSuffix(path, "/activate") && r.Method == http.MethodPost:
		h.activate(w, r, strings.TrimSuffix(path, "/activate"))
	default:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, path)
		case http.MethodDelete:
			h.delete(w, r, path)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type profileResponse struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Record calibration.Record `json:"record"`
}

func (h *CalibrationHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileResponse{ID: p.ID, Name: p.Name, Record: p.Record})
	}
	writeJSON(w, http.StatusOK, out)
}

type createRequest struct {
	Name   string              `json:"name"`
	Record *calibration.Record `json:"record,omitempty"`
}

// create stores a new profile. Without an explicit record the engine's live
// calibration state is snapshotted.
func (h *CalibrationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	record := calibration.Record{}
	if req.Record != nil {
		record = *req.Record
	} else if h.engine != nil {
		record = h.engine.Calibration().Snapshot()
	}

	p := &store.Profile{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Record: record,
	}
	if err := h.store.Profiles().Create(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, profileResponse{ID: p.ID, Name: p.Name, Record: p.Record})
}

func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{ID: p.ID, Name: p.Name, Record: p.Record})
}

func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Profiles().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activate loads a stored profile into the engine and remembers it as the
// active profile.
func (h *CalibrationHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if h.engine == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}

	p, err := h.store.Profiles().Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.engine.LoadCalibration(p.Record); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := h.store.Settings().Set(store.ActiveProfileKey, p.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": p.ID})
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// addPoint pairs the engine's latest raw gaze sample with a screen target.
func (h *CalibrationHandler) addPoint(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}

	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.AddCalibrationPoint(tracker.Point{X: req.X, Y: req.Y}); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"points": h.engine.Calibration().PointCount(),
	})
}

// compute fits the transform over the collected pairs.
func (h *CalibrationHandler) compute(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.engine.Calibration().Compute(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calibrated": true})
}

// reset discards the engine's collected pairs and fitted transform.
func (h *CalibrationHandler) reset(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}
	h.engine.Calibration().Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
