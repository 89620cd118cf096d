package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/geometry"
	"golang.org/x/image/draw"
)

// ErrEmptyROI is returned when a region of interest has no pixels left after
// clamping it to the frame
var ErrEmptyROI = errors.New("region of interest is empty")

// ROIRect scales a normalized rectangle into the pixel space of the source
// buffer and clamps it to the buffer bounds
func ROIRect(src *gaze.PixelBuffer, r geometry.Rect) image.Rectangle {
	return r.Scale(src.Width, src.Height).Intersect(src.Bounds())
}

// ExtractROI crops the normalized rectangle r out of src and resizes the crop
// with nearest neighbour sampling into a new width x height buffer.  The
// rectangle is clamped to the frame first, a rectangle with no pixels inside
// the frame returns ErrEmptyROI
func ExtractROI(src *gaze.PixelBuffer, r geometry.Rect, width, height int) (*gaze.PixelBuffer, error) {

	if err := src.Validate(); err != nil {
		return nil, err
	}

	roi := ROIRect(src, r)

	if roi.Empty() {
		return nil, fmt.Errorf("%s in %dx%d frame: %w", r, src.Width, src.Height, ErrEmptyROI)
	}

	dst := gaze.NewPixelBuffer(width, height)

	draw.NearestNeighbor.Scale(dst.RGBA(), dst.Bounds(), src.RGBA(), roi, draw.Src, nil)

	return dst, nil
}
