package gaze

import (
	"context"
	"fmt"
)

// Model is a loaded inference model.  Infer receives an owned [C, H, W]
// input tensor and returns owned output tensors, the caller may keep them
// after the next call
type Model interface {
	Infer(ctx context.Context, input *Tensor) ([]*Tensor, error)
	Close() error
}

// Describer is implemented by models able to report their input and output
// tensor information
type Describer interface {
	InputInfo() []TensorInfo
	OutputInfo() []TensorInfo
}

// DetectionEngine runs the face detection model on a normalized frame tensor
type DetectionEngine interface {
	Detect(ctx context.Context, input *Tensor) (DetectionOutput, error)
}

// GazeEngine runs the gaze regression model on a normalized face tensor
type GazeEngine interface {
	EstimateGaze(ctx context.Context, input *Tensor) (GazeOutput, error)
}

// DetectionOutput is the raw output of the face detection model.  For N
// candidate boxes Scores holds 2N values with the foreground probability of
// box i at index 2i+1, and Boxes holds 4N normalized corner coordinates
// (x1, y1, x2, y2) per box
type DetectionOutput struct {
	Scores []float32
	Boxes  []float32
}

// Len returns the number of candidate boxes
func (o DetectionOutput) Len() int {
	return len(o.Boxes) / 4
}

// Validate checks the output layout.  If expected is greater than zero the
// number of candidate boxes must also equal it
func (o DetectionOutput) Validate(expected int) error {

	if len(o.Boxes)%4 != 0 {
		return fmt.Errorf("boxes length %d is not a multiple of 4: %w",
			len(o.Boxes), ErrMalformedOutput)
	}

	n := o.Len()

	if len(o.Scores) != 2*n {
		return fmt.Errorf("scores length %d does not match %d boxes: %w",
			len(o.Scores), n, ErrMalformedOutput)
	}

	if expected > 0 && n != expected {
		return fmt.Errorf("expected %d candidate boxes, got %d: %w",
			expected, n, ErrMalformedOutput)
	}

	return nil
}

// GazeOutput is the raw output of the gaze model, the first two values are
// the yaw and pitch in radians
type GazeOutput struct {
	Raw []float32
}

// Validate checks the output holds at least the yaw and pitch values
func (o GazeOutput) Validate() error {

	if len(o.Raw) < 2 {
		return fmt.Errorf("gaze output has %d values, expected at least 2: %w",
			len(o.Raw), ErrMalformedOutput)
	}

	return nil
}

// Yaw returns the horizontal gaze angle in radians
func (o GazeOutput) Yaw() float32 {
	return o.Raw[0]
}

// Pitch returns the vertical gaze angle in radians
func (o GazeOutput) Pitch() float32 {
	return o.Raw[1]
}

// Detector adapts a Model to the DetectionEngine interface by picking the
// scores and boxes output tensors
type Detector struct {
	model Model
	// ScoresOutput is the index of the scores output tensor
	ScoresOutput int
	// BoxesOutput is the index of the boxes output tensor
	BoxesOutput int
}

// NewDetector returns a Detector for an UltraFace model which has its scores
// at output 0 and boxes at output 1
func NewDetector(m Model) *Detector {
	return &Detector{
		model:        m,
		ScoresOutput: 0,
		BoxesOutput:  1,
	}
}

// Detect runs the model and returns its scores and boxes outputs
func (d *Detector) Detect(ctx context.Context, input *Tensor) (DetectionOutput, error) {

	outputs, err := d.model.Infer(ctx, input)

	if err != nil {
		return DetectionOutput{}, err
	}

	if d.ScoresOutput >= len(outputs) || d.BoxesOutput >= len(outputs) {
		return DetectionOutput{}, fmt.Errorf("model returned %d outputs: %w",
			len(outputs), ErrMalformedOutput)
	}

	return DetectionOutput{
		Scores: outputs[d.ScoresOutput].Data,
		Boxes:  outputs[d.BoxesOutput].Data,
	}, nil
}

// GazeEstimator adapts a Model to the GazeEngine interface
type GazeEstimator struct {
	model Model
	// Output is the index of the [yaw, pitch] output tensor
	Output int
}

// NewGazeEstimator returns a GazeEstimator reading the first model output
func NewGazeEstimator(m Model) *GazeEstimator {
	return &GazeEstimator{
		model:  m,
		Output: 0,
	}
}

// EstimateGaze runs the model and returns its gaze output
func (g *GazeEstimator) EstimateGaze(ctx context.Context, input *Tensor) (GazeOutput, error) {

	outputs, err := g.model.Infer(ctx, input)

	if err != nil {
		return GazeOutput{}, err
	}

	if g.Output >= len(outputs) {
		return GazeOutput{}, fmt.Errorf("model returned %d outputs: %w",
			len(outputs), ErrMalformedOutput)
	}

	return GazeOutput{Raw: outputs[g.Output].Data}, nil
}
