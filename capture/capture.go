// Package capture provides pipeline frame sources backed by GoCV, reading
// from camera devices, video files or streams and static image files
package capture

import (
	"fmt"

	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
)

// converter turns BGR Mats into pipeline frames at the detection resolution,
// the resizer is recreated whenever the source size changes
type converter struct {
	width      int
	height     int
	keepSource bool
	resizer    *Resizer
}

// frame converts img into a Frame
func (c *converter) frame(img gocv.Mat) (pipeline.Frame, error) {

	if img.Empty() {
		return pipeline.Frame{}, fmt.Errorf("empty frame")
	}

	if c.resizer == nil || c.resizer.SrcWidth() != img.Cols() || c.resizer.SrcHeight() != img.Rows() {
		c.close()
		c.resizer = NewResizer(img.Cols(), img.Rows(), c.width, c.height)
	}

	det, err := c.resizer.PixelBuffer(img)

	if err != nil {
		return pipeline.Frame{}, fmt.Errorf("error resizing frame: %w", err)
	}

	frame := pipeline.Frame{Detection: det}

	if c.keepSource {
		frame.Source, err = MatToPixelBuffer(img)

		if err != nil {
			return pipeline.Frame{}, fmt.Errorf("error converting frame: %w", err)
		}
	}

	return frame, nil
}

func (c *converter) close() {
	if c.resizer != nil {
		c.resizer.Close()
		c.resizer = nil
	}
}
