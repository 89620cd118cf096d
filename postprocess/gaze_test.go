package postprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/swdee/go-gaze"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func vecAlmostEqual(a, b r3.Vec) bool {
	return scalar.EqualWithinAbs(a.X, b.X, 1e-9) &&
		scalar.EqualWithinAbs(a.Y, b.Y, 1e-9) &&
		scalar.EqualWithinAbs(a.Z, b.Z, 1e-9)
}

func TestDecodeGaze(t *testing.T) {

	tests := []struct {
		name       string
		yaw, pitch float32
		expected   r3.Vec
	}{
		{"straight ahead", 0, 0, r3.Vec{X: 0, Y: 0, Z: -1}},
		{"looking up", 0, math.Pi / 2, r3.Vec{X: 0, Y: -1, Z: 0}},
		{"looking side", math.Pi / 2, 0, r3.Vec{X: -1, Y: 0, Z: 0}},
	}

	for _, tc := range tests {
		est, err := DecodeGaze(gaze.GazeOutput{Raw: []float32{tc.yaw, tc.pitch}})

		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}

		if est.Yaw != float64(tc.yaw) || est.Pitch != float64(tc.pitch) {
			t.Errorf("%s: angles not passed through, got pitch=%f yaw=%f", tc.name, est.Pitch, est.Yaw)
		}

		// float32 inputs limit the precision of the vector
		if !scalar.EqualWithinAbs(est.Vector.X, tc.expected.X, 1e-6) ||
			!scalar.EqualWithinAbs(est.Vector.Y, tc.expected.Y, 1e-6) ||
			!scalar.EqualWithinAbs(est.Vector.Z, tc.expected.Z, 1e-6) {
			t.Errorf("%s: expected vector %v, got %v", tc.name, tc.expected, est.Vector)
		}
	}
}

func TestDecodeGazeMalformed(t *testing.T) {

	_, err := DecodeGaze(gaze.GazeOutput{Raw: []float32{0.3}})

	if !errors.Is(err, gaze.ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestGazeVectorIsUnit(t *testing.T) {

	for pitch := -3.0; pitch <= 3.0; pitch += 0.37 {
		for yaw := -3.0; yaw <= 3.0; yaw += 0.41 {
			v := GazeVector(pitch, yaw)

			if n := r3.Norm(v); !scalar.EqualWithinAbs(n, 1, 1e-9) {
				t.Fatalf("pitch=%f yaw=%f: vector %v has norm %f", pitch, yaw, v, n)
			}
		}
	}
}

func TestCanonicalRoundTrip(t *testing.T) {

	// angles already in the canonical range are unchanged
	for _, tc := range [][2]float64{{0, 0}, {0.3, -0.8}, {-1.2, 2.5}, {1.5, -3.0}} {
		est := NewGazeEstimate(tc[0], tc[1])
		c := est.Canonical()

		if !scalar.EqualWithinAbs(c.Pitch, tc[0], 1e-9) || !scalar.EqualWithinAbs(c.Yaw, tc[1], 1e-9) {
			t.Errorf("pitch=%f yaw=%f: canonical gave pitch=%f yaw=%f", tc[0], tc[1], c.Pitch, c.Yaw)
		}
	}

	// angles outside the range fold back while keeping the same direction
	est := NewGazeEstimate(math.Pi, 0.5)
	c := est.Canonical()

	if c.Pitch < -math.Pi/2 || c.Pitch > math.Pi/2 || c.Yaw <= -math.Pi || c.Yaw > math.Pi {
		t.Errorf("canonical angles out of range: pitch=%f yaw=%f", c.Pitch, c.Yaw)
	}

	if !vecAlmostEqual(c.Vector, est.Vector) {
		t.Errorf("canonical vector %v differs from %v", c.Vector, est.Vector)
	}
}

func TestGazeFromVector(t *testing.T) {

	if got := GazeFromVector(r3.Vec{}); got != (GazeEstimate{}) {
		t.Errorf("expected zero estimate for zero vector, got %+v", got)
	}

	// non unit vectors are normalized
	got := GazeFromVector(r3.Vec{X: 0, Y: 0, Z: -5})

	if got.Pitch != 0 || got.Yaw != 0 || !vecAlmostEqual(got.Vector, r3.Vec{Z: -1}) {
		t.Errorf("unexpected estimate %+v", got)
	}

	pitch, yaw := NewGazeEstimate(math.Pi/4, -math.Pi/2).Degrees()

	if !scalar.EqualWithinAbs(pitch, 45, 1e-9) || !scalar.EqualWithinAbs(yaw, -90, 1e-9) {
		t.Errorf("expected 45, -90 degrees, got %f, %f", pitch, yaw)
	}
}
