package cursor

import (
	"testing"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/tracker"
)

func TestToPixels_MapsNormalizedToScreen(t *testing.T) {
	tests := []struct {
		name             string
		p                tracker.Point
		invertX, invertY bool
		wantX, wantY     int
	}{
		{"center", tracker.Point{X: 0.5, Y: 0.5}, false, false, 960, 540},
		{"origin", tracker.Point{X: 0, Y: 0}, false, false, 0, 0},
		{"bottom right clamped", tracker.Point{X: 1, Y: 1}, false, false, 1919, 1079},
		{"below range clamped", tracker.Point{X: -0.5, Y: -0.5}, false, false, 0, 0},
		{"above range clamped", tracker.Point{X: 1.5, Y: 1.5}, false, false, 1919, 1079},
		{"invert x", tracker.Point{X: 0.25, Y: 0.5}, true, false, 1440, 540},
		{"invert y", tracker.Point{X: 0.5, Y: 0.25}, false, true, 960, 810},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ToPixels(tt.p, tt.invertX, tt.invertY, 1920, 1080)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("ToPixels(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestLogger_NeverErrors(t *testing.T) {
	l := NewLogger()

	if err := l.MoveTo(tracker.Point{X: 0.5, Y: 0.5}, false, false); err != nil {
		t.Errorf("MoveTo returned %v", err)
	}
	if err := l.Click(click.Left); err != nil {
		t.Errorf("Click returned %v", err)
	}
}

func TestMock_RecordsCalls(t *testing.T) {
	m := NewMock()

	if err := m.MoveTo(tracker.Point{X: 0.1, Y: 0.2}, true, false); err != nil {
		t.Fatalf("MoveTo returned %v", err)
	}
	if err := m.Click(click.Left); err != nil {
		t.Fatalf("Click returned %v", err)
	}

	moves := m.Moves()
	if len(moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(moves))
	}
	if moves[0].Position.X != 0.1 || !moves[0].InvertX || moves[0].InvertY {
		t.Errorf("unexpected move recorded: %+v", moves[0])
	}
	if clicks := m.Clicks(); len(clicks) != 1 || clicks[0] != click.Left {
		t.Errorf("unexpected clicks recorded: %v", clicks)
	}
}
