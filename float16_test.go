package gaze

import (
	"bytes"
	"strings"
	"testing"
)

func TestFloat16ToFloat32(t *testing.T) {

	tests := []struct {
		bits     uint16
		expected float32
	}{
		{0x0000, 0},
		{0x3c00, 1},
		{0xbc00, -1},
		{0x3800, 0.5},
		{0x4000, 2},
		{0x7bff, 65504},
	}

	for _, tc := range tests {
		if got := Float16ToFloat32(tc.bits); got != tc.expected {
			t.Errorf("0x%04x: expected %f, got %f", tc.bits, tc.expected, got)
		}
	}
}

func TestFloat16BytesToFloat32(t *testing.T) {

	// little endian 1.0, -2.0 and a trailing odd byte
	got := Float16BytesToFloat32([]byte{0x00, 0x3c, 0x00, 0xc0, 0xff})

	if len(got) != 2 || got[0] != 1 || got[1] != -2 {
		t.Errorf("unexpected conversion %v", got)
	}
}

type stubDescriber struct{}

func (stubDescriber) InputInfo() []TensorInfo {
	return []TensorInfo{{Name: "input", Dims: []int64{1, 3, 240, 320}, Type: TensorFloat32, Fmt: TensorNCHW}}
}

func (stubDescriber) OutputInfo() []TensorInfo {
	return []TensorInfo{
		{Index: 0, Name: "scores", Dims: []int64{1, 4420, 2}, Type: TensorFloat32},
		{Index: 1, Name: "boxes", Dims: []int64{1, 4420, 4}, Type: TensorFloat16},
	}
}

func TestQuery(t *testing.T) {

	var buf bytes.Buffer

	if err := Query(&buf, stubDescriber{}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	out := buf.String()

	for _, want := range []string{
		"Model Input Number: 1, Output Number: 2",
		"name=input",
		"dims=[1, 4420, 4]",
		"type=FP16",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("query output missing %q:\n%s", want, out)
		}
	}
}
