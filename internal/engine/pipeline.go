package engine

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/fusion"
	"github.com/ayusman/kursorin/internal/tracker"
)

// CameraRecoveryDelay is the pause between closing and reopening the camera
// during the single automatic recovery attempt.
const CameraRecoveryDelay = 500 * time.Millisecond

// runLoop is the worker goroutine owning the entire per-frame pipeline.
// Cancellation is checked between frames only; a stop request is honored at
// most one frame-latency later.
func (e *Engine) runLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	e.warmup(stopCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}
		if !e.processFrame(stopCh) {
			return
		}
	}
}

// warmup discards the configured number of frames so camera exposure and
// focus settle before the first processed frame.
func (e *Engine) warmup(stopCh <-chan struct{}) {
	n := e.Config().WarmupFrames
	for i := 0; i < n; i++ {
		select {
		case <-stopCh:
			return
		default:
		}
		if frame, err := e.camera.Read(); err == nil {
			frame.Close()
		}
	}
}

// processFrame runs one full pipeline pass. It returns false only when the
// loop must exit: an unrecovered camera failure leaves the engine in the
// Error state until a manual stop/start.
func (e *Engine) processFrame(stopCh <-chan struct{}) bool {
	start := time.Now()

	frame, err := e.camera.Read()
	if err != nil {
		return e.recoverCamera(err, stopCh)
	}

	e.mu.Lock()
	cfg := e.cfg
	paused := e.paused
	calibrating := e.calibrating
	e.mu.Unlock()

	if cfg.Mirror {
		mirrored := gocv.NewMat()
		gocv.Flip(*frame, &mirrored, 1)
		frame.Close()
		frame = &mirrored
	}
	defer frame.Close()

	timestamp := time.Now()

	var head, eye, hand *tracker.Estimate
	if !paused {
		if cfg.HeadEnabled {
			head = e.runTracker("head", e.head, frame)
		}
		if cfg.EyeEnabled {
			eye = e.runTracker("eye", e.eye, frame)
		}
		if cfg.HandEnabled {
			hand = e.runTracker("hand", e.hand, frame)
		}
	}

	eye = e.applyCalibration(eye)

	var cursorPos *tracker.Point
	if !paused {
		fused, ferr := e.fuser.Fuse(head, eye, hand)
		switch {
		case ferr == nil:
			smoothed := e.smoother.Smooth(fused, timeSeconds(timestamp), cfg.FilterMinCutoff, cfg.FilterBeta)
			cursorPos = &smoothed
		case errors.Is(ferr, fusion.ErrNoValidModality):
			// No usable modality this frame; the cursor holds its last
			// position. Not an error.
		default:
			log.Printf("Fusion error: %v", ferr)
		}
	}

	clickKind := click.None
	if !paused {
		clickKind = e.clicks.Detect(eye, hand, cursorPos, timestamp)
	}

	if !paused && !calibrating {
		if cursorPos != nil {
			if aerr := e.actuator.MoveTo(*cursorPos, cfg.InvertX, cfg.InvertY); aerr != nil {
				log.Printf("Cursor move failed: %v", aerr)
			}
		}
		if clickKind != click.None {
			if aerr := e.actuator.Click(clickKind); aerr != nil {
				log.Printf("Cursor click failed: %v", aerr)
			}
		}
	}

	latencyMS := float64(time.Since(start)) / float64(time.Millisecond)
	result := FrameResult{
		Timestamp:      timestamp,
		CursorPosition: cursorPos,
		Click:          clickKind,
		Head:           head,
		Eye:            eye,
		Hand:           hand,
		LatencyMS:      latencyMS,
	}

	e.mu.Lock()
	e.frameCount++
	e.mu.Unlock()

	e.notifyFrame(result)

	e.monitor.RecordLatency(latencyMS)
	e.monitor.FrameComplete(time.Now())
	return true
}

// runTracker dispatches one modality. A tracker error is logged and treated
// as an invalid estimate for this frame; it never aborts the loop.
func (e *Engine) runTracker(name string, t tracker.Tracker, frame *gocv.Mat) *tracker.Estimate {
	if t == nil {
		return nil
	}
	est, err := t.Process(frame)
	if err != nil {
		log.Printf("%s tracker: %v", name, err)
		return nil
	}
	return &est
}

// applyCalibration records the latest raw gaze sample and maps the eye
// estimate through the calibration model. The input estimate is not
// mutated; FrameResult carries the mapped copy.
func (e *Engine) applyCalibration(eye *tracker.Estimate) *tracker.Estimate {
	if eye == nil || !eye.Valid {
		return eye
	}

	raw := eye.Position
	e.mu.Lock()
	e.lastRawGaze = &raw
	e.mu.Unlock()

	mapped := *eye
	mapped.Position = e.calib.Map(raw)
	return &mapped
}

// recoverCamera handles a camera read failure: surface the error, then make
// exactly one bounded attempt to close and reopen the device. On success
// the engine returns to Tracking; on failure it stays in Error and the loop
// exits until a manual stop/start.
func (e *Engine) recoverCamera(readErr error, stopCh <-chan struct{}) bool {
	log.Printf("Camera read failed: %v", readErr)
	e.setState(StateError)
	e.notifyError(readErr)

	if cerr := e.camera.Close(); cerr != nil {
		log.Printf("Error closing camera during recovery: %v", cerr)
	}

	select {
	case <-stopCh:
		return false
	case <-time.After(CameraRecoveryDelay):
	}

	if oerr := e.camera.Open(); oerr != nil {
		log.Printf("Camera recovery failed: %v", oerr)
		e.notifyError(oerr)
		return false
	}

	log.Println("Camera recovered")
	e.setState(StateTracking)
	return true
}

func timeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
