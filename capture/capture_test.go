package capture

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/swdee/go-gaze"
	"gocv.io/x/gocv"
)

// writeImage saves a single color BGR image as a PNG file
func writeImage(t *testing.T, path string, width, height int, bgr gocv.Scalar) {
	t.Helper()

	img := gocv.NewMatWithSizeFromScalar(bgr, height, width, gocv.MatTypeCV8UC3)
	defer img.Close()

	if ok := gocv.IMWrite(path, img); !ok {
		t.Fatalf("failed to write test image %s", path)
	}
}

func TestImages(t *testing.T) {

	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")

	writeImage(t, first, 64, 48, gocv.NewScalar(30, 20, 10, 0))
	writeImage(t, second, 32, 32, gocv.NewScalar(0, 0, 200, 0))

	src := NewImages([]string{first, filepath.Join(dir, "missing.png"), second}, 16, 12)
	ctx := context.Background()

	frame, err := src.Read(ctx)

	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if frame.Detection.Width != 16 || frame.Detection.Height != 12 {
		t.Errorf("expected 16x12 detection frame, got %dx%d", frame.Detection.Width, frame.Detection.Height)
	}

	if frame.Source == nil || frame.Source.Width != 64 || frame.Source.Height != 48 {
		t.Fatalf("expected 64x48 source frame, got %+v", frame.Source)
	}

	if px := frame.Source.Pix[:4]; px[0] != 10 || px[1] != 20 || px[2] != 30 || px[3] != 255 {
		t.Errorf("expected RGBA (10,20,30,255), got %v", px)
	}

	// unreadable files are reported and skipped
	if _, err := src.Read(ctx); err == nil || errors.Is(err, gaze.ErrSourceClosed) {
		t.Errorf("expected read error for missing file, got %v", err)
	}

	frame, err = src.Read(ctx)

	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if frame.Detection.Width != 16 || frame.Source.Width != 32 {
		t.Errorf("unexpected frame sizes %d and %d", frame.Detection.Width, frame.Source.Width)
	}

	if px := frame.Detection.Pix[:4]; px[0] != 200 || px[1] != 0 || px[2] != 0 {
		t.Errorf("expected red detection frame, got %v", px)
	}

	if _, err := src.Read(ctx); !errors.Is(err, gaze.ErrSourceClosed) {
		t.Errorf("expected ErrSourceClosed, got %v", err)
	}

	if src.Last() != second {
		t.Errorf("expected last file %s, got %s", second, src.Last())
	}
}

func TestImagesCancelled(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewImages([]string{"a.png"}, 16, 12).Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpenCameraErrors(t *testing.T) {

	if _, err := OpenCamera("0", CameraOptions{}); !errors.Is(err, gaze.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for missing detection size, got %v", err)
	}

	opts := CameraOptions{DetectWidth: 320, DetectHeight: 240}

	if _, err := OpenCamera(filepath.Join(t.TempDir(), "missing.mp4"), opts); err == nil {
		t.Errorf("expected error opening missing video file")
	}
}

func TestCameraGrabError(t *testing.T) {

	tests := []struct {
		device string
		closed bool
	}{
		{"0", false},
		{"2", false},
		{"video.mp4", true},
		{"rtsp://10.0.0.5/stream", true},
	}

	for _, tc := range tests {
		cam := &Camera{device: tc.device, live: isDeviceIndex(tc.device)}
		err := cam.grabError()

		if got := errors.Is(err, gaze.ErrSourceClosed); got != tc.closed {
			t.Errorf("device %s: expected closed=%v, got error %v", tc.device, tc.closed, err)
		}

		if !tc.closed && !errors.Is(err, ErrGrabFailed) {
			t.Errorf("device %s: expected ErrGrabFailed, got %v", tc.device, err)
		}
	}
}
