package gaze

import (
	"encoding/binary"

	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Float16ToFloat32 converts the bits of an IEEE 754 half precision value
// to float32
func Float16ToFloat32(bits uint16) float32 {
	return f16LookupTable[bits]
}

// Float16BytesToFloat32 converts a little endian buffer of half precision
// values into a new float32 slice.  A trailing odd byte is ignored
func Float16BytesToFloat32(b []byte) []float32 {

	out := make([]float32, len(b)/2)

	for i := range out {
		out[i] = f16LookupTable[binary.LittleEndian.Uint16(b[i*2:])]
	}

	return out
}
