// Package engine orchestrates the per-frame processing pipeline: camera
// acquisition, modality tracking, fusion, smoothing, click detection, and
// cursor actuation, behind a lifecycle state machine.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/kursorin/internal/calibration"
	"github.com/ayusman/kursorin/internal/capture"
	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/config"
	"github.com/ayusman/kursorin/internal/cursor"
	"github.com/ayusman/kursorin/internal/filter"
	"github.com/ayusman/kursorin/internal/fusion"
	"github.com/ayusman/kursorin/internal/perf"
	"github.com/ayusman/kursorin/internal/tracker"
)

// JoinTimeout bounds how long Stop waits for the worker loop to finish the
// frame in flight.
const JoinTimeout = 2 * time.Second

var (
	// ErrNoCamera is returned by Start when no camera was configured.
	ErrNoCamera = errors.New("no camera configured")

	// ErrNoGazeSample is returned by AddCalibrationPoint when no valid raw
	// gaze has been observed yet.
	ErrNoGazeSample = errors.New("no raw gaze sample available")

	// ErrNotRunning is returned by operations that require an active
	// session.
	ErrNotRunning = errors.New("engine is not running")
)

// Options configures an Engine. Camera is required to start; trackers are
// optional per modality (a missing tracker simply never contributes).
// Actuator defaults to the logging no-op and Calibration to a fresh model.
type Options struct {
	Camera   capture.Camera
	Head     tracker.Tracker
	Eye      tracker.Tracker
	Hand     tracker.Tracker
	Actuator cursor.Actuator

	Calibration *calibration.Model
	Config      config.Config
}

// Engine owns the frame loop and the single source of truth for the
// tracking lifecycle. One worker goroutine runs the pipeline; lifecycle
// commands arrive from other goroutines and synchronize on one mutex.
type Engine struct {
	mu  sync.Mutex
	cfg config.Config

	camera   capture.Camera
	head     tracker.Tracker
	eye      tracker.Tracker
	hand     tracker.Tracker
	actuator cursor.Actuator

	calib    *calibration.Model
	fuser    *fusion.Engine
	smoother *filter.Smoother
	clicks   *click.Detector
	monitor  *perf.Monitor

	state       TrackingState
	running     bool
	paused      bool
	calibrating bool
	stopCh      chan struct{}
	doneCh      chan struct{}

	lastRawGaze *tracker.Point
	frameCount  uint64

	frameListeners []func(FrameResult)
	stateListeners []func(TrackingState)
	errorListeners []func(error)
}

// New creates an engine in the Idle state.
func New(opts Options) *Engine {
	if opts.Actuator == nil {
		opts.Actuator = cursor.NewLogger()
	}
	if opts.Calibration == nil {
		opts.Calibration = calibration.NewModel()
	}
	return &Engine{
		cfg:      opts.Config,
		camera:   opts.Camera,
		head:     opts.Head,
		eye:      opts.Eye,
		hand:     opts.Hand,
		actuator: opts.Actuator,
		calib:    opts.Calibration,
		fuser:    fusion.New(opts.Config.Fusion()),
		smoother: filter.NewSmoother(),
		clicks:   click.NewDetector(opts.Config.Click()),
		monitor:  perf.NewMonitor(),
		state:    StateIdle,
	}
}

// Start opens the camera and launches the frame loop. Calling Start on a
// running engine is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	if e.camera == nil {
		e.mu.Unlock()
		return ErrNoCamera
	}
	if err := e.camera.Open(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("open camera: %w", err)
	}

	// Fresh session: filter state, click latches, and statistics reset.
	e.smoother.Reset()
	e.clicks.Reset()
	e.monitor.Reset()
	e.frameCount = 0
	e.lastRawGaze = nil

	e.running = true
	e.paused = false
	e.calibrating = false
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.runLoop(e.stopCh, e.doneCh)
	e.mu.Unlock()

	e.setState(StateTracking)
	log.Println("Engine started")
	return nil
}

// Stop signals the frame loop, waits up to JoinTimeout for it to finish the
// frame in flight, releases the camera, and returns the engine to Idle.
// Safe to call when not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	done := e.doneCh
	e.mu.Unlock()

	select {
	case <-done:
	case <-time.After(JoinTimeout):
		log.Println("Timed out waiting for processing loop to stop")
	}

	if err := e.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	e.setState(StateIdle)
	log.Println("Engine stopped")
}

// Close stops the engine and releases the modality trackers. The engine
// cannot be restarted afterwards.
func (e *Engine) Close() {
	e.Stop()
	for name, t := range map[string]tracker.Tracker{"head": e.head, "eye": e.eye, "hand": e.hand} {
		if t == nil {
			continue
		}
		if err := t.Close(); err != nil {
			log.Printf("Error closing %s tracker: %v", name, err)
		}
	}
}

// Pause suspends tracking, fusion, smoothing, click detection, and
// actuation while keeping the camera warm. No-op when not running.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.mu.Unlock()
	e.setState(StatePaused)
}

// Resume ends a pause. No-op when not running.
func (e *Engine) Resume() {
	e.mu.Lock()
	if !e.running || !e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = false
	calibrating := e.calibrating
	e.mu.Unlock()
	if calibrating {
		e.setState(StateCalibrating)
	} else {
		e.setState(StateTracking)
	}
}

// TogglePause flips the pause flag and returns the new paused state.
func (e *Engine) TogglePause() bool {
	if e.IsPaused() {
		e.Resume()
		return false
	}
	e.Pause()
	return true
}

// BeginCalibration enters the Calibrating state: trackers keep running so
// raw gaze can be sampled, but cursor actuation is suspended.
func (e *Engine) BeginCalibration() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.calibrating = true
	e.mu.Unlock()
	e.setState(StateCalibrating)
	return nil
}

// EndCalibration leaves the Calibrating state.
func (e *Engine) EndCalibration() {
	e.mu.Lock()
	e.calibrating = false
	running, paused := e.running, e.paused
	e.mu.Unlock()
	if !running {
		return
	}
	if paused {
		e.setState(StatePaused)
	} else {
		e.setState(StateTracking)
	}
}

// AddCalibrationPoint pairs the most recent raw gaze sample with the screen
// target the user was looking at.
func (e *Engine) AddCalibrationPoint(screenTarget tracker.Point) error {
	e.mu.Lock()
	raw := e.lastRawGaze
	e.mu.Unlock()
	if raw == nil {
		return ErrNoGazeSample
	}
	e.calib.AddPoint(*raw, screenTarget)
	return nil
}

// Calibration returns the engine's calibration model.
func (e *Engine) Calibration() *calibration.Model {
	return e.calib
}

// LoadCalibration replaces the calibration model state from a persisted
// record.
func (e *Engine) LoadCalibration(rec calibration.Record) error {
	return e.calib.Restore(rec)
}

// UpdateConfig applies fn to the configuration under lock and pushes the
// derived settings into the fusion engine and click detector. Filter
// parameters take effect on the next frame without resetting filter state.
func (e *Engine) UpdateConfig(fn func(*config.Config)) {
	e.mu.Lock()
	fn(&e.cfg)
	cfg := e.cfg
	e.mu.Unlock()

	e.fuser.SetConfig(cfg.Fusion())
	e.clicks.SetConfig(cfg.Click())
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// State returns the current lifecycle state.
func (e *Engine) State() TrackingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsRunning reports whether the frame loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// IsPaused reports whether tracking is paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// FPS returns the achieved frame rate over the monitor window.
func (e *Engine) FPS() float64 { return e.monitor.FPS() }

// LatencyMS returns the average per-frame processing latency.
func (e *Engine) LatencyMS() float64 { return e.monitor.AvgLatencyMS() }

// FrameCount returns the number of frames processed this session.
func (e *Engine) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

// OnFrame registers a listener receiving every FrameResult. Listeners run
// synchronously on the worker goroutine in registration order and must not
// block.
func (e *Engine) OnFrame(fn func(FrameResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameListeners = append(e.frameListeners, fn)
}

// OnStateChange registers a listener for lifecycle transitions.
func (e *Engine) OnStateChange(fn func(TrackingState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stateListeners = append(e.stateListeners, fn)
}

// OnError registers a listener for processing errors.
func (e *Engine) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorListeners = append(e.errorListeners, fn)
}

// setState transitions the state and notifies listeners outside the lock. A
// panicking listener is logged, never allowed to abort the caller.
func (e *Engine) setState(s TrackingState) {
	e.mu.Lock()
	if e.state == s {
		e.mu.Unlock()
		return
	}
	old := e.state
	e.state = s
	listeners := append([]func(TrackingState)(nil), e.stateListeners...)
	e.mu.Unlock()

	log.Printf("State changed: %s -> %s", old, s)
	for _, fn := range listeners {
		invokeState(fn, s)
	}
}

func (e *Engine) notifyFrame(r FrameResult) {
	e.mu.Lock()
	listeners := append([]func(FrameResult)(nil), e.frameListeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		invokeFrame(fn, r)
	}
}

func (e *Engine) notifyError(err error) {
	e.mu.Lock()
	listeners := append([]func(error)(nil), e.errorListeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		invokeError(fn, err)
	}
}

func invokeFrame(fn func(FrameResult), r FrameResult) {
	defer recoverListener("frame")
	fn(r)
}

func invokeState(fn func(TrackingState), s TrackingState) {
	defer recoverListener("state")
	fn(s)
}

func invokeError(fn func(error), err error) {
	defer recoverListener("error")
	fn(err)
}

func recoverListener(kind string) {
	if p := recover(); p != nil {
		log.Printf("Panic in %s listener: %v", kind, p)
	}
}
