package capture

import (
	"fmt"
	"image"

	"github.com/swdee/go-gaze"
	"gocv.io/x/gocv"
)

// Resizer defines the struct used for scaling camera frames to the
// detection model resolution and converting them into PixelBuffers
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// rgbaMat holds the color converted image before copying out
	rgbaMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
		rgbaMat:    gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	err := r.tempMat.Close()

	if err2 := r.rgbaMat.Close(); err == nil {
		err = err2
	}

	return err
}

// Resize stretches the source image to the destination dimensions using
// nearest neighbour interpolation, the aspect ratio is not kept
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat) {
	gocv.Resize(src, dest, image.Pt(r.destWidth, r.destHeight),
		0, 0, gocv.InterpolationNearestNeighbor)
}

// PixelBuffer resizes a BGR or BGRA camera frame and returns it as a newly
// allocated RGBA PixelBuffer at the destination dimensions
func (r *Resizer) PixelBuffer(src gocv.Mat) (*gaze.PixelBuffer, error) {

	if src.Cols() != r.srcWidth || src.Rows() != r.srcHeight {
		return nil, fmt.Errorf("frame is %dx%d, resizer expects %dx%d: %w",
			src.Cols(), src.Rows(), r.srcWidth, r.srcHeight, gaze.ErrDimensionMismatch)
	}

	r.Resize(src, &r.tempMat)

	return matToPixelBuffer(r.tempMat, &r.rgbaMat)
}

// ScaleX returns the horizontal scale factor from source to destination
func (r *Resizer) ScaleX() float32 {
	return float32(r.destWidth) / float32(r.srcWidth)
}

// ScaleY returns the vertical scale factor from source to destination
func (r *Resizer) ScaleY() float32 {
	return float32(r.destHeight) / float32(r.srcHeight)
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}

// MatToPixelBuffer converts a BGR or BGRA Mat at its full resolution into a
// newly allocated RGBA PixelBuffer
func MatToPixelBuffer(src gocv.Mat) (*gaze.PixelBuffer, error) {

	rgba := gocv.NewMat()
	defer rgba.Close()

	return matToPixelBuffer(src, &rgba)
}

// matToPixelBuffer color converts src into the rgba work Mat and copies the
// pixels out of Mat memory
func matToPixelBuffer(src gocv.Mat, rgba *gocv.Mat) (*gaze.PixelBuffer, error) {

	if src.Empty() {
		return nil, fmt.Errorf("empty frame: %w", gaze.ErrDimensionMismatch)
	}

	switch src.Channels() {
	case 3:
		gocv.CvtColor(src, rgba, gocv.ColorBGRToRGBA)
	case 4:
		gocv.CvtColor(src, rgba, gocv.ColorBGRAToRGBA)
	default:
		return nil, fmt.Errorf("unsupported frame with %d channels: %w",
			src.Channels(), gaze.ErrDimensionMismatch)
	}

	return gaze.PixelBufferFromBytes(rgba.Cols(), rgba.Rows(), rgba.ToBytes())
}
