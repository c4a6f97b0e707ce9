// Package tracker defines the modality tracker contract and the estimate
// types produced once per frame by each pointing-signal source.
package tracker

import "gocv.io/x/gocv"

// Tracker is implemented by each modality (head pose, eye gaze, hand
// position). Implementations own their model state; the engine treats them
// as opaque per-frame estimators.
type Tracker interface {
	// Process analyzes a video frame and returns the modality's estimate.
	// An estimate with Valid=false means the modality produced nothing
	// usable this frame; that is not an error.
	Process(frame *gocv.Mat) (Estimate, error)

	// Close releases any resources held by the tracker.
	Close() error
}

// Point is a position normalized to [0,1] in both axes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyeMetadata carries eye-channel scalars used by blink detection and
// calibration.
type EyeMetadata struct {
	EAR      float64 `json:"ear"`
	LeftEAR  float64 `json:"left_ear"`
	RightEAR float64 `json:"right_ear"`
	GazeX    float64 `json:"gaze_x"`
	GazeY    float64 `json:"gaze_y"`
}

// Gesture is a coarse hand pose tag reported by a hand tracker.
type Gesture string

const (
	GestureNone     Gesture = "none"
	GesturePointing Gesture = "pointing"
	GestureOpenPalm Gesture = "open_palm"
	GestureFist     Gesture = "fist"
)

// HandMetadata carries hand-channel scalars used by pinch detection.
type HandMetadata struct {
	PinchDistance float64 `json:"pinch_distance"`
	Gesture       Gesture `json:"gesture"`
}

// HeadMetadata carries head pose angles in degrees.
type HeadMetadata struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Estimate is the result of one tracker for one frame. Position is only
// meaningful when Valid is true. At most one of the metadata pointers is
// set, matching the producing modality.
type Estimate struct {
	Valid      bool          `json:"valid"`
	Position   Point         `json:"position"`
	Confidence float64       `json:"confidence"`
	Eye        *EyeMetadata  `json:"eye,omitempty"`
	Hand       *HandMetadata `json:"hand,omitempty"`
	Head       *HeadMetadata `json:"head,omitempty"`
}
