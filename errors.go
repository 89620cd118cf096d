package gaze

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a pixel buffer or tensor does not
	// have the dimensions expected by the stage receiving it
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInferenceFailure is matched by every error reported by an inference
	// engine, including malformed outputs
	ErrInferenceFailure = errors.New("inference failure")
	// ErrMalformedOutput is returned when an inference engine produces output
	// that does not have the expected layout
	ErrMalformedOutput = errors.New("malformed inference output")
	// ErrSourceClosed is returned by a frame source when no more frames are
	// available
	ErrSourceClosed = errors.New("frame source closed")
	// ErrPoolClosed is returned when requesting a model from a closed pool
	ErrPoolClosed = errors.New("model pool closed")
)

// Stage names the inference stage an InferenceError occurred in
type Stage string

const (
	StageDetection Stage = "detection"
	StageGaze      Stage = "gaze"
)

// InferenceError wraps an error returned by an inference engine along with
// the stage of the pipeline it occurred in
type InferenceError struct {
	Stage Stage
	Err   error
}

// NewInferenceError returns an InferenceError for the given stage
func NewInferenceError(stage Stage, err error) *InferenceError {
	return &InferenceError{Stage: stage, Err: err}
}

// Error returns the error message
func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying engine error
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Is reports every InferenceError as an ErrInferenceFailure
func (e *InferenceError) Is(target error) bool {
	return target == ErrInferenceFailure
}
