package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_ReadBeforeOpen(t *testing.T) {
	c := BlankMockCamera(64, 48)
	defer c.CloseFrames()

	if _, err := c.Read(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
}

func TestMockCamera_PlaybackLoops(t *testing.T) {
	c := BlankMockCamera(64, 48)
	defer c.CloseFrames()

	if err := c.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	// A single backing frame must loop indefinitely.
	for i := 0; i < 5; i++ {
		frame, err := c.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if frame.Cols() != 64 || frame.Rows() != 48 {
			t.Errorf("Read %d: expected 64x48 frame, got %dx%d", i, frame.Cols(), frame.Rows())
		}
		frame.Close()
	}
	if c.Reads() != 5 {
		t.Errorf("expected 5 reads, got %d", c.Reads())
	}
}

func TestMockCamera_NonLoopingPlaybackEnds(t *testing.T) {
	a := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	b := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	c := NewMockCamera([]*gocv.Mat{&a, &b}, false)
	defer c.CloseFrames()

	if err := c.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	for i := 0; i < 2; i++ {
		frame, err := c.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		frame.Close()
	}
	if _, err := c.Read(); !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected ErrFrameRead past the end, got %v", err)
	}
}

func TestMockCamera_InjectedErrors(t *testing.T) {
	c := BlankMockCamera(64, 48)
	defer c.CloseFrames()

	c.SetOpenError(ErrCameraNotFound)
	if err := c.Open(); !errors.Is(err, ErrCameraNotFound) {
		t.Fatalf("expected injected open error, got %v", err)
	}

	c.SetOpenError(nil)
	if err := c.Open(); err != nil {
		t.Fatalf("Open failed after clearing error: %v", err)
	}
	defer c.Close()

	c.SetReadError(ErrFrameRead)
	if _, err := c.Read(); !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected injected read error, got %v", err)
	}

	c.SetReadError(nil)
	frame, err := c.Read()
	if err != nil {
		t.Errorf("Read failed after clearing error: %v", err)
	} else {
		frame.Close()
	}
}

func TestMockCamera_OpenResetsPlayback(t *testing.T) {
	a := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	c := NewMockCamera([]*gocv.Mat{&a}, false)
	defer c.CloseFrames()

	if err := c.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	frame, err := c.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	frame.Close()
	c.Close()

	if c.IsOpen() {
		t.Error("camera should report closed")
	}

	// Reopening rewinds to the first frame.
	if err := c.Open(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()
	frame, err = c.Read()
	if err != nil {
		t.Fatalf("Read after reopen failed: %v", err)
	}
	frame.Close()

	if c.Opens() != 2 {
		t.Errorf("expected 2 opens, got %d", c.Opens())
	}
}
