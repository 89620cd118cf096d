package postprocess

import (
	"fmt"
	"math"

	"github.com/swdee/go-gaze"
	"gonum.org/v1/gonum/spatial/r3"
)

// GazeEstimate is the decoded gaze direction of a face
type GazeEstimate struct {
	// Pitch is the vertical gaze angle in radians
	Pitch float64 `json:"pitch"`
	// Yaw is the horizontal gaze angle in radians
	Yaw float64 `json:"yaw"`
	// Vector is the unit gaze direction in camera coordinates
	Vector r3.Vec `json:"vector"`
}

// DecodeGaze converts the raw [yaw, pitch] gaze model output into a
// GazeEstimate.  Pitch and yaw are passed through unchanged
func DecodeGaze(out gaze.GazeOutput) (GazeEstimate, error) {

	if err := out.Validate(); err != nil {
		return GazeEstimate{}, fmt.Errorf("error decoding gaze: %w", err)
	}

	return NewGazeEstimate(float64(out.Pitch()), float64(out.Yaw())), nil
}

// NewGazeEstimate returns the estimate for the given angles with the gaze
// vector (-cos(p)sin(y), -sin(p), -cos(p)cos(y))
func NewGazeEstimate(pitch, yaw float64) GazeEstimate {
	return GazeEstimate{
		Pitch:  pitch,
		Yaw:    yaw,
		Vector: GazeVector(pitch, yaw),
	}
}

// GazeVector returns the unit gaze vector for the pitch and yaw angles
func GazeVector(pitch, yaw float64) r3.Vec {
	return r3.Vec{
		X: -(math.Cos(pitch) * math.Sin(yaw)),
		Y: -(math.Sin(pitch)),
		Z: -(math.Cos(pitch) * math.Cos(yaw)),
	}
}

// GazeFromVector derives pitch and yaw from a gaze vector of any length
func GazeFromVector(v r3.Vec) GazeEstimate {

	norm := r3.Norm(v)

	if norm == 0 {
		return GazeEstimate{}
	}

	u := r3.Scale(1/norm, v)

	return GazeEstimate{
		Pitch:  math.Asin(clamp64(-u.Y, -1, 1)),
		Yaw:    math.Atan2(-u.X, -u.Z),
		Vector: u,
	}
}

// Canonical re-derives pitch and yaw from the gaze vector, folding any angle
// into pitch in [-pi/2, pi/2] and yaw in (-pi, pi]
func (g GazeEstimate) Canonical() GazeEstimate {
	return GazeFromVector(g.Vector)
}

// Degrees returns the pitch and yaw in degrees
func (g GazeEstimate) Degrees() (pitch, yaw float64) {
	return g.Pitch * 180 / math.Pi, g.Yaw * 180 / math.Pi
}

// clamp64 restricts the value to be within the range lo and hi
func clamp64(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
