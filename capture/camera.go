package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
)

// CameraOptions defines the capture settings of a Camera
type CameraOptions struct {
	// DetectWidth and DetectHeight are the detection model resolution frames
	// are resized to
	DetectWidth  int
	DetectHeight int
	// Width and Height request a capture resolution from the device, zero
	// keeps the device default
	Width  int
	Height int
	// KeepSource attaches the full resolution frame so faces are cropped at
	// capture resolution
	KeepSource bool
}

// ErrGrabFailed is returned when a live camera device fails to deliver a
// frame, the Runner counts it as a read error and retries
var ErrGrabFailed = errors.New("camera frame grab failed")

// Camera is a pipeline.Source reading frames from a camera device, video
// file or stream URL
type Camera struct {
	device  string
	live    bool
	capture *gocv.VideoCapture
	img     gocv.Mat
	conv    converter
	mu      sync.Mutex
	closed  bool
}

// OpenCamera opens the capture device.  The device is either a camera index
// such as "0" or a file path or stream URL
func OpenCamera(device string, opts CameraOptions) (*Camera, error) {

	if opts.DetectWidth <= 0 || opts.DetectHeight <= 0 {
		return nil, fmt.Errorf("invalid detection size %dx%d: %w",
			opts.DetectWidth, opts.DetectHeight, gaze.ErrDimensionMismatch)
	}

	capture, err := gocv.OpenVideoCapture(device)

	if err != nil {
		return nil, fmt.Errorf("error opening capture device %s: %w", device, err)
	}

	if opts.Width > 0 && opts.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}

	return &Camera{
		device:  device,
		live:    isDeviceIndex(device),
		capture: capture,
		img:     gocv.NewMat(),
		conv: converter{
			width:      opts.DetectWidth,
			height:     opts.DetectHeight,
			keepSource: opts.KeepSource,
		},
	}, nil
}

// Device returns the device the camera was opened with
func (c *Camera) Device() string {
	return c.device
}

// Size returns the capture resolution reported by the device
func (c *Camera) Size() (int, int) {
	return int(c.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(c.capture.Get(gocv.VideoCaptureFrameHeight))
}

// FPS returns the frame rate reported by the device
func (c *Camera) FPS() float64 {
	return c.capture.Get(gocv.VideoCaptureFPS)
}

// Read grabs the next frame.  It returns gaze.ErrSourceClosed at the end of a
// video file or stream and once the camera is closed.  A failed grab from a
// camera device returns ErrGrabFailed
func (c *Camera) Read(ctx context.Context) (pipeline.Frame, error) {

	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return pipeline.Frame{}, gaze.ErrSourceClosed
	}

	if ok := c.capture.Read(&c.img); !ok {
		return pipeline.Frame{}, c.grabError()
	}

	return c.conv.frame(c.img)
}

// grabError returns the error for a failed frame grab
func (c *Camera) grabError() error {
	if c.live {
		return fmt.Errorf("device %s: %w", c.device, ErrGrabFailed)
	}
	return gaze.ErrSourceClosed
}

// isDeviceIndex reports whether device names a camera index rather than a
// file path or stream URL
func isDeviceIndex(device string) bool {
	_, err := strconv.Atoi(device)
	return err == nil
}

// Close releases the capture device
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.conv.close()
	c.img.Close()

	return c.capture.Close()
}
