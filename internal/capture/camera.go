// Package capture provides camera frame acquisition using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings requested from the device. The device may
// negotiate different values; the accessors reflect what was granted.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30
)

var (
	// ErrCameraNotFound is returned by Open when the device cannot be
	// opened.
	ErrCameraNotFound = errors.New("camera device not found")

	// ErrCameraNotOpen is returned when reading from a camera that is not
	// open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrFrameRead is returned when the device fails to deliver a frame.
	ErrFrameRead = errors.New("failed to read frame from camera")
)

// Camera is the frame source consumed by the processing engine.
type Camera interface {
	// Open acquires the device. Opening an already open camera is a no-op.
	Open() error

	// Read returns the next frame. The caller owns the returned Mat and
	// must Close it.
	Read() (*gocv.Mat, error)

	// Close releases the device. Safe to call when not open.
	Close() error

	// Width, Height, and FPS reflect the negotiated capture settings,
	// which may differ from the requested ones.
	Width() int
	Height() int
	FPS() float64

	IsOpen() bool
}

// webcam captures frames from a physical device via GoCV.
type webcam struct {
	deviceID int
	mu       sync.Mutex
	capture  *gocv.VideoCapture
	running  bool

	width  int
	height int
	fps    float64
}

// NewCamera creates a Camera for the given device ID with the default
// requested resolution and frame rate.
func NewCamera(deviceID int) Camera {
	return NewCameraWithSettings(deviceID, DefaultWidth, DefaultHeight, DefaultFPS)
}

// NewCameraWithSettings creates a Camera requesting a specific resolution
// and frame rate from the device.
func NewCameraWithSettings(deviceID, width, height int, fps float64) Camera {
	return &webcam{
		deviceID: deviceID,
		width:    width,
		height:   height,
		fps:      fps,
	}
}

// Open opens the device and negotiates capture settings. Some cameras do
// not honor the requested resolution, so the granted values are read back.
func (c *webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrCameraNotFound, c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	capture.Set(gocv.VideoCaptureFPS, c.fps)

	c.width = int(capture.Get(gocv.VideoCaptureFrameWidth))
	c.height = int(capture.Get(gocv.VideoCaptureFrameHeight))
	c.fps = capture.Get(gocv.VideoCaptureFPS)

	c.capture = capture
	c.running = true
	return nil
}

// Close closes the device and releases resources.
func (c *webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false
	return err
}

// Read reads a single frame. The caller is responsible for closing the
// returned Mat.
func (c *webcam) Read() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrFrameRead
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: empty frame", ErrFrameRead)
	}
	return &mat, nil
}

func (c *webcam) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *webcam) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *webcam) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
