package preprocess

import (
	"fmt"

	"github.com/swdee/go-gaze"
)

// Normalizer converts a RGBA PixelBuffer into a planar [3, H, W] float tensor
// with each channel scaled to [0,1] then standardized with per channel mean
// and standard deviation
type Normalizer struct {
	// Width is the expected pixel buffer width
	Width int
	// Height is the expected pixel buffer height
	Height int
	// Mean is the per channel mean in R, G, B order
	Mean [3]float32
	// Std is the per channel standard deviation in R, G, B order
	Std [3]float32
}

// ImageNetMean is the per channel RGB mean of the ImageNet dataset
var ImageNetMean = [3]float32{0.485, 0.456, 0.406}

// ImageNetStd is the per channel RGB standard deviation of the ImageNet
// dataset
var ImageNetStd = [3]float32{0.229, 0.224, 0.225}

// NewNormalizer returns a Normalizer for buffers of the given size using the
// ImageNet mean and standard deviation
func NewNormalizer(width, height int) *Normalizer {
	return &Normalizer{
		Width:  width,
		Height: height,
		Mean:   ImageNetMean,
		Std:    ImageNetStd,
	}
}

// Normalize returns a newly allocated [3, Height, Width] tensor where
// t[c][y][x] = (p(x,y,c)/255 - Mean[c]) / Std[c].  The alpha channel is
// dropped.  The buffer must be exactly Width x Height pixels
func (n *Normalizer) Normalize(buf *gaze.PixelBuffer) (*gaze.Tensor, error) {

	if err := buf.Validate(); err != nil {
		return nil, err
	}

	if buf.Width != n.Width || buf.Height != n.Height {
		return nil, fmt.Errorf("pixel buffer is %dx%d, expected %dx%d: %w",
			buf.Width, buf.Height, n.Width, n.Height, gaze.ErrDimensionMismatch)
	}

	// fold the division by 255 and the standardization into one multiply
	// and add per channel
	var scale, bias [3]float32

	for c := 0; c < 3; c++ {
		scale[c] = 1 / (255 * n.Std[c])
		bias[c] = -n.Mean[c] / n.Std[c]
	}

	plane := n.Width * n.Height
	t := gaze.NewImageTensor(3, n.Height, n.Width)

	r := t.Data[0:plane]
	g := t.Data[plane : 2*plane]
	b := t.Data[2*plane : 3*plane]

	for i := 0; i < plane; i++ {
		p := buf.Pix[i*gaze.BytesPerPixel : i*gaze.BytesPerPixel+3]
		r[i] = float32(p[0])*scale[0] + bias[0]
		g[i] = float32(p[1])*scale[1] + bias[1]
		b[i] = float32(p[2])*scale[2] + bias[2]
	}

	return t, nil
}
