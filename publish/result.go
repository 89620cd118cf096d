package publish

import (
	"github.com/swdee/go-gaze/pipeline"
)

// Face is the published form of a detected face and its gaze
type Face struct {
	// X, Y, Width and Height are the face box in normalized [0,1]
	// coordinates
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Width      float32 `json:"width"`
	Height     float32 `json:"height"`
	Confidence float32 `json:"confidence"`
	// Pitch and Yaw are in radians
	Pitch  float64    `json:"pitch"`
	Yaw    float64    `json:"yaw"`
	Vector [3]float64 `json:"vector"`
}

// Timing is the per stage processing time in milliseconds
type Timing struct {
	Detect float64 `json:"detect"`
	Gaze   float64 `json:"gaze"`
	Total  float64 `json:"total"`
}

// Result is the published form of a frame result
type Result struct {
	StreamID string `json:"stream_id"`
	Sequence int64  `json:"sequence"`
	Faces    []Face `json:"faces"`
	Timing   Timing `json:"timing_ms"`
	// Error is set when the frame was skipped
	Error string `json:"error,omitempty"`
}

// NewResult converts a pipeline result into its published form
func NewResult(res pipeline.FrameResult) Result {

	out := Result{
		StreamID: res.StreamID,
		Sequence: res.Sequence,
		Faces:    make([]Face, len(res.Faces)),
		Timing: Timing{
			Detect: float64(res.Timing.Detect.Microseconds()) / 1000,
			Gaze:   float64(res.Timing.Gaze.Microseconds()) / 1000,
			Total:  float64(res.Timing.Total.Microseconds()) / 1000,
		},
	}

	if res.Err != nil {
		out.Error = res.Err.Error()
	}

	for i, f := range res.Faces {
		v := f.Gaze.Vector

		out.Faces[i] = Face{
			X:          f.Box.Rect.X,
			Y:          f.Box.Rect.Y,
			Width:      f.Box.Rect.Width,
			Height:     f.Box.Rect.Height,
			Confidence: f.Box.Confidence,
			Pitch:      f.Gaze.Pitch,
			Yaw:        f.Gaze.Yaw,
			Vector:     [3]float64{v.X, v.Y, v.Z},
		}
	}

	return out
}
