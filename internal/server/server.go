// Package server provides the local HTTP control surface: engine status and
// lifecycle control, calibration profile management, a live frame stream
// over websocket, and an MJPEG camera preview.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/kursorin/internal/capture"
	"github.com/ayusman/kursorin/internal/engine"
	"github.com/ayusman/kursorin/internal/server/api"
	"github.com/ayusman/kursorin/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Engine *engine.Engine
	Store  *store.Store
	Camera capture.Camera
}

// Server is the HTTP server for the control surface.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/control", s.handleControl)

	if s.config.Store != nil {
		var eng api.Engine
		if s.config.Engine != nil {
			eng = s.config.Engine
		}
		calibration := api.NewCalibrationHandler(s.config.Store, eng)
		s.mux.Handle("/api/calibration", calibration)
		s.mux.Handle("/api/calibration/", calibration)
	}
	if s.config.Engine != nil {
		s.mux.Handle("/ws/frames", NewFramesHandler(s.config.Engine))
	}
	if s.config.Camera != nil {
		s.mux.Handle("/stream", NewStreamHandler(s.config.Camera))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server on the given address and blocks.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleStatus reports the engine lifecycle state and performance metrics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	e := s.config.Engine
	if e == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":              e.State(),
		"running":            e.IsRunning(),
		"paused":             e.IsPaused(),
		"fps":                e.FPS(),
		"avg_latency_ms":     e.LatencyMS(),
		"frames":             e.FrameCount(),
		"calibrated":         e.Calibration().IsCalibrated(),
		"calibration_points": e.Calibration().PointCount(),
	})
}

// controlRequest is the body for /api/control.
type controlRequest struct {
	Action string `json:"action"`
}

// handleControl drives the engine lifecycle: start, stop, pause, resume,
// begin_calibration, end_calibration.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	e := s.config.Engine
	if e == nil {
		http.Error(w, "Engine not configured", http.StatusServiceUnavailable)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Action {
	case "start":
		err = e.Start()
	case "stop":
		e.Stop()
	case "pause":
		e.Pause()
	case "resume":
		e.Resume()
	case "begin_calibration":
		err = e.BeginCalibration()
	case "end_calibration":
		e.EndCalibration()
	default:
		http.Error(w, fmt.Sprintf("Unknown action %q", req.Action), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":  e.State(),
		"paused": e.IsPaused(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
