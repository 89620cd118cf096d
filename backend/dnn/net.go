package dnn

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/swdee/go-gaze"
	"gocv.io/x/gocv"
)

// Options defines the OpenCV DNN settings for a Net
type Options struct {
	// Backend is the compute backend name, eg: "default", "openvino", "cuda".
	// An empty value uses the OpenCV default
	Backend string
	// Target is the compute target name, eg: "cpu", "fp16", "cuda"
	Target string
	// Width and Height are the image input size of the model
	Width  int
	Height int
	// OutputNames are the output layers to fetch in order, when empty the
	// unconnected output layers of the network are used
	OutputNames []string
}

// Net is a gaze.Model backed by an OpenCV DNN network loaded from an ONNX
// file
type Net struct {
	path     string
	net      gocv.Net
	opts     Options
	outNames []string
	outDims  [][]int64
	mu       sync.Mutex
	closed   bool
}

// Open loads the ONNX model file into an OpenCV DNN network
func Open(path string, opts Options) (*Net, error) {

	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid input size %dx%d for model %s",
			opts.Width, opts.Height, path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error finding model file: %w", err)
	}

	net := gocv.ReadNetFromONNX(path)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", path)
	}

	if opts.Backend != "" {
		if err := net.SetPreferableBackend(gocv.ParseNetBackend(opts.Backend)); err != nil {
			net.Close()
			return nil, fmt.Errorf("error setting backend %s: %w", opts.Backend, err)
		}
	}

	if opts.Target != "" {
		if err := net.SetPreferableTarget(gocv.ParseNetTarget(opts.Target)); err != nil {
			net.Close()
			return nil, fmt.Errorf("error setting target %s: %w", opts.Target, err)
		}
	}

	n := &Net{
		path:     path,
		net:      net,
		opts:     opts,
		outNames: opts.OutputNames,
	}

	if len(n.outNames) == 0 {
		n.outNames = outputLayerNames(&net)
	}

	if len(n.outNames) == 0 {
		net.Close()
		return nil, fmt.Errorf("model %s has no output layers", path)
	}

	n.outDims = make([][]int64, len(n.outNames))

	return n, nil
}

// outputLayerNames returns the names of the network layers with unconnected
// outputs
func outputLayerNames(net *gocv.Net) []string {

	ids := net.GetUnconnectedOutLayers()
	names := make([]string, 0, len(ids))

	for _, id := range ids {
		layer := net.GetLayer(id)
		names = append(names, layer.GetName())
		layer.Close()
	}

	return names
}

// Infer runs a forward pass of the network and returns copies of the output
// blobs in the order of the output names
func (n *Net) Infer(ctx context.Context, input *gaze.Tensor) ([]*gaze.Tensor, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if input.Channels() != 3 || input.Height() != n.opts.Height || input.Width() != n.opts.Width {
		return nil, fmt.Errorf("input shape %v, model %s expects [3 %d %d]: %w",
			input.Shape, n.path, n.opts.Height, n.opts.Width, gaze.ErrDimensionMismatch)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, fmt.Errorf("model %s is closed", n.path)
	}

	blob := gocv.NewMatWithSizes(intDims(input.BatchShape()), gocv.MatTypeCV32F)
	defer blob.Close()

	dst, err := blob.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error accessing input blob: %w", err)
	}

	copy(dst, input.Data)

	if err := n.net.SetInput(blob, ""); err != nil {
		return nil, fmt.Errorf("error setting input: %w", err)
	}

	blobs := n.net.ForwardLayers(n.outNames)

	defer func() {
		for i := range blobs {
			blobs[i].Close()
		}
	}()

	if len(blobs) != len(n.outNames) {
		return nil, fmt.Errorf("model %s returned %d outputs, expected %d: %w",
			n.path, len(blobs), len(n.outNames), gaze.ErrMalformedOutput)
	}

	results := make([]*gaze.Tensor, len(blobs))

	for i := range blobs {
		data, err := blobs[i].DataPtrFloat32()

		if err != nil {
			return nil, fmt.Errorf("error reading output %s: %w", n.outNames[i], err)
		}

		shape := blobs[i].Size()

		results[i] = &gaze.Tensor{
			Shape: shape,
			Data:  append([]float32(nil), data...),
		}

		n.outDims[i] = int64Dims(shape)
	}

	return results, nil
}

// InputInfo returns the image input the network was opened with
func (n *Net) InputInfo() []gaze.TensorInfo {
	return []gaze.TensorInfo{{
		Index: 0,
		Name:  "input",
		Dims:  []int64{1, 3, int64(n.opts.Height), int64(n.opts.Width)},
		Type:  gaze.TensorFloat32,
		Fmt:   gaze.TensorNCHW,
	}}
}

// OutputInfo returns the output layers of the network.  Dimensions are only
// known after the first inference
func (n *Net) OutputInfo() []gaze.TensorInfo {

	n.mu.Lock()
	defer n.mu.Unlock()

	info := make([]gaze.TensorInfo, len(n.outNames))

	for i, name := range n.outNames {
		info[i] = gaze.TensorInfo{
			Index: i,
			Name:  name,
			Dims:  n.outDims[i],
			Type:  gaze.TensorFloat32,
			Fmt:   gaze.TensorNCHW,
		}
	}

	return info
}

// Close releases the network
func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true

	return n.net.Close()
}

func intDims(dims []int64) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d)
	}
	return out
}

func int64Dims(dims []int) []int64 {
	out := make([]int64, len(dims))
	for i, d := range dims {
		out[i] = int64(d)
	}
	return out
}
