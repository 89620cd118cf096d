package gaze

import (
	"testing"
)

func TestCPUCoreMask(t *testing.T) {

	tests := []struct {
		cores    []int
		expected uintptr
	}{
		{nil, 0},
		{[]int{0}, 0x1},
		{[]int{4, 5, 6, 7}, 0xf0},
		{[]int{0, 2, 2}, 0x5},
	}

	for _, tc := range tests {
		if got := CPUCoreMask(tc.cores); got != tc.expected {
			t.Errorf("CPUCoreMask(%v): expected %#x, got %#x", tc.cores, tc.expected, got)
		}
	}
}

func TestSetCPUAffinityByCoresEmpty(t *testing.T) {
	if err := SetCPUAffinityByCores(nil); err != nil {
		t.Errorf("empty core list should be a no-op, got %v", err)
	}
}
