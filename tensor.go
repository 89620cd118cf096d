package gaze

import (
	"fmt"
	"strings"
)

// TensorFormat is the memory layout of a tensor
type TensorFormat int

const (
	TensorUndefined TensorFormat = iota
	TensorNCHW
	TensorNHWC
)

// String returns a readable description of the TensorFormat
func (f TensorFormat) String() string {
	switch f {
	case TensorNCHW:
		return "NCHW"
	case TensorNHWC:
		return "NHWC"
	default:
		return "UNDEFINED"
	}
}

// TensorType is the element data type of a tensor
type TensorType int

const (
	TensorTypeUnknown TensorType = iota
	TensorFloat32
	TensorFloat16
	TensorInt8
	TensorUint8
	TensorInt32
	TensorInt64
)

// String returns a readable description of the TensorType
func (t TensorType) String() string {
	switch t {
	case TensorFloat32:
		return "FP32"
	case TensorFloat16:
		return "FP16"
	case TensorInt8:
		return "INT8"
	case TensorUint8:
		return "UINT8"
	case TensorInt32:
		return "INT32"
	case TensorInt64:
		return "INT64"
	default:
		return "UNKNOW"
	}
}

// TensorInfo describes an input or output tensor of a loaded model
type TensorInfo struct {
	Index int
	Name  string
	// Dims are the tensor dimensions, a negative value marks a dynamic
	// dimension
	Dims []int64
	Type TensorType
	Fmt  TensorFormat
}

// String returns the TensorInfo attributes formatted as a string
func (a TensorInfo) String() string {

	dims := make([]string, len(a.Dims))

	for i, d := range a.Dims {
		dims[i] = fmt.Sprintf("%d", d)
	}

	return fmt.Sprintf("index=%d, name=%s, n_dims=%d, dims=[%s], fmt=%s, type=%s",
		a.Index, a.Name, len(a.Dims), strings.Join(dims, ", "), a.Fmt, a.Type)
}

// Tensor is a dense float32 tensor.  Image tensors use the planar [C, H, W]
// layout and are passed to an engine with an implicit batch size of 1
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor returns a Tensor with the given shape backed by data.  The
// number of elements in data must match the shape
func NewTensor(shape []int, data []float32) (*Tensor, error) {

	n := 1

	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid tensor shape %v: %w", shape, ErrDimensionMismatch)
		}
		n *= d
	}

	if n != len(data) {
		return nil, fmt.Errorf("tensor shape %v needs %d elements, got %d: %w",
			shape, n, len(data), ErrDimensionMismatch)
	}

	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  data,
	}, nil
}

// NewImageTensor allocates a zeroed planar [channels, height, width] tensor
func NewImageTensor(channels, height, width int) *Tensor {
	return &Tensor{
		Shape: []int{channels, height, width},
		Data:  make([]float32, channels*height*width),
	}
}

// Len returns the number of elements in the tensor
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Channels returns the channel count of a [C, H, W] tensor
func (t *Tensor) Channels() int {
	return t.dim(0)
}

// Height returns the height of a [C, H, W] tensor
func (t *Tensor) Height() int {
	return t.dim(1)
}

// Width returns the width of a [C, H, W] tensor
func (t *Tensor) Width() int {
	return t.dim(2)
}

// At returns the element at channel c, row y and column x of a [C, H, W]
// tensor
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height()+y)*t.Width()+x]
}

// BatchShape returns the tensor shape with a leading batch dimension of 1
func (t *Tensor) BatchShape() []int64 {

	shape := make([]int64, 0, len(t.Shape)+1)
	shape = append(shape, 1)

	for _, d := range t.Shape {
		shape = append(shape, int64(d))
	}

	return shape
}

// dim returns the dimension at index i or 0 if the tensor has fewer
// dimensions
func (t *Tensor) dim(i int) int {
	if i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}
