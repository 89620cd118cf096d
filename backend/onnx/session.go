package onnx

import (
	"context"
	"fmt"
	"sync"

	"github.com/swdee/go-gaze"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the ONNX Runtime shared library and initializes the runtime
// environment.  An empty libPath uses the library search path of the system.
// Init only takes effect the first time it is called
func Init(libPath string) error {
	initOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("error initializing onnxruntime: %w", err)
		}
	})

	return initErr
}

// Shutdown releases the ONNX Runtime environment, all sessions must be
// closed first
func Shutdown() error {
	return ort.DestroyEnvironment()
}

// Options defines the session settings
type Options struct {
	// IntraOpThreads is the number of threads used within an operator, zero
	// keeps the runtime default
	IntraOpThreads int
	// InterOpThreads is the number of threads used across operators, zero
	// keeps the runtime default
	InterOpThreads int
}

// output binds a model output to the tensor the runtime writes it into
type output struct {
	value ort.Value
	f32   *ort.Tensor[float32]
	f16   *ort.CustomDataTensor
	shape []int
}

// data copies the output into a new float32 slice
func (o output) data() []float32 {
	if o.f16 != nil {
		return gaze.Float16BytesToFloat32(o.f16.GetData())
	}
	return append([]float32(nil), o.f32.GetData()...)
}

// Session is a gaze.Model backed by an ONNX Runtime session with a single
// float32 image input.  Dynamic dimensions are fixed to 1
type Session struct {
	path       string
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	outputs    []output
	inputInfo  []gaze.TensorInfo
	outputInfo []gaze.TensorInfo
	mu         sync.Mutex
}

// Open loads the ONNX model file and allocates its input and output tensors.
// Init must have been called first
func Open(path string, opts Options) (*Session, error) {

	inputs, outputs, err := ort.GetInputOutputInfo(path)

	if err != nil {
		return nil, fmt.Errorf("error reading model info from %s: %w", path, err)
	}

	if len(inputs) != 1 {
		return nil, fmt.Errorf("model %s has %d inputs, expected 1", path, len(inputs))
	}

	if inputs[0].DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("model %s input is %v, expected float32",
			path, inputs[0].DataType)
	}

	s := &Session{
		path:       path,
		inputInfo:  convertInfo(inputs),
		outputInfo: convertInfo(outputs),
	}

	s.input, err = ort.NewEmptyTensor[float32](fixedShape(inputs[0].Dimensions))

	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outNames := make([]string, len(outputs))
	outValues := make([]ort.Value, len(outputs))

	for i, info := range outputs {
		out, err := newOutput(info)

		if err != nil {
			s.Close()
			return nil, err
		}

		s.outputs = append(s.outputs, out)
		outNames[i] = info.Name
		outValues[i] = out.value
	}

	so, err := ort.NewSessionOptions()

	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error creating session options: %w", err)
	}

	defer so.Destroy()

	if opts.IntraOpThreads > 0 {
		if err := so.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			s.Close()
			return nil, fmt.Errorf("error setting intra op threads: %w", err)
		}
	}

	if opts.InterOpThreads > 0 {
		if err := so.SetInterOpNumThreads(opts.InterOpThreads); err != nil {
			s.Close()
			return nil, fmt.Errorf("error setting inter op threads: %w", err)
		}
	}

	s.session, err = ort.NewAdvancedSession(path,
		[]string{inputs[0].Name},
		outNames,
		[]ort.Value{s.input},
		outValues,
		so,
	)

	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error creating session for %s: %w", path, err)
	}

	return s, nil
}

// newOutput allocates the tensor an output is written into
func newOutput(info ort.InputOutputInfo) (output, error) {

	shape := fixedShape(info.Dimensions)
	out := output{shape: intShape(shape)}

	switch info.DataType {
	case ort.TensorElementDataTypeFloat:
		t, err := ort.NewEmptyTensor[float32](shape)

		if err != nil {
			return out, fmt.Errorf("error creating output tensor %s: %w", info.Name, err)
		}

		out.f32 = t
		out.value = t

	case ort.TensorElementDataTypeFloat16:
		t, err := ort.NewCustomDataTensor(shape, make([]byte, shape.FlattenedSize()*2),
			ort.TensorElementDataTypeFloat16)

		if err != nil {
			return out, fmt.Errorf("error creating output tensor %s: %w", info.Name, err)
		}

		out.f16 = t
		out.value = t

	default:
		return out, fmt.Errorf("output %s has unsupported type %v", info.Name, info.DataType)
	}

	return out, nil
}

// Infer copies the input tensor into the session, runs the model and
// returns copies of all outputs
func (s *Session) Infer(ctx context.Context, input *gaze.Tensor) ([]*gaze.Tensor, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("session %s is closed", s.path)
	}

	dst := s.input.GetData()

	if len(dst) != input.Len() {
		return nil, fmt.Errorf("input has %d elements, model %s expects %d: %w",
			input.Len(), s.path, len(dst), gaze.ErrDimensionMismatch)
	}

	copy(dst, input.Data)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("error running model %s: %w", s.path, err)
	}

	results := make([]*gaze.Tensor, len(s.outputs))

	for i, out := range s.outputs {
		results[i] = &gaze.Tensor{
			Shape: append([]int(nil), out.shape...),
			Data:  out.data(),
		}
	}

	return results, nil
}

// InputInfo returns the model input tensor information
func (s *Session) InputInfo() []gaze.TensorInfo {
	return s.inputInfo
}

// OutputInfo returns the model output tensor information
func (s *Session) OutputInfo() []gaze.TensorInfo {
	return s.outputInfo
}

// InputSize returns the width and height of the NCHW image input
func (s *Session) InputSize() (int, int) {

	dims := s.inputInfo[0].Dims

	if len(dims) != 4 {
		return 0, 0
	}

	return int(dims[3]), int(dims[2])
}

// Close releases the session and its tensors
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error

	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}

	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}

	for _, out := range s.outputs {
		out.value.Destroy()
	}

	s.outputs = nil

	return err
}

// fixedShape replaces dynamic dimensions with 1
func fixedShape(dims ort.Shape) ort.Shape {

	shape := make(ort.Shape, len(dims))

	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}

	return shape
}

// intShape converts a runtime shape to int dimensions
func intShape(dims ort.Shape) []int {

	shape := make([]int, len(dims))

	for i, d := range dims {
		shape[i] = int(d)
	}

	return shape
}

// convertInfo maps runtime input/output information to gaze.TensorInfo
func convertInfo(infos []ort.InputOutputInfo) []gaze.TensorInfo {

	out := make([]gaze.TensorInfo, len(infos))

	for i, info := range infos {
		out[i] = gaze.TensorInfo{
			Index: i,
			Name:  info.Name,
			Dims:  append([]int64(nil), info.Dimensions...),
			Type:  convertType(info.DataType),
			Fmt:   gaze.TensorNCHW,
		}
	}

	return out
}

// convertType maps a runtime element type to a gaze.TensorType
func convertType(t ort.TensorElementDataType) gaze.TensorType {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return gaze.TensorFloat32
	case ort.TensorElementDataTypeFloat16:
		return gaze.TensorFloat16
	case ort.TensorElementDataTypeInt8:
		return gaze.TensorInt8
	case ort.TensorElementDataTypeUint8:
		return gaze.TensorUint8
	case ort.TensorElementDataTypeInt32:
		return gaze.TensorInt32
	case ort.TensorElementDataTypeInt64:
		return gaze.TensorInt64
	default:
		return gaze.TensorTypeUnknown
	}
}
