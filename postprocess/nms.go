package postprocess

import (
	"sort"

	"github.com/swdee/go-gaze/geometry"
)

// SortAscending sorts candidates in place by ascending confidence.  Among
// equal confidences the candidate that came first in the input is placed
// last, so NonMaximumSuppression consumes it first
func SortAscending(cands []geometry.ScoredRect) {

	// a stable descending sort keeps input order among ties, reversing it
	// then gives ascending order with ties in reverse input order
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})

	for i, j := 0, len(cands)-1; i < j; i, j = i+1, j-1 {
		cands[i], cands[j] = cands[j], cands[i]
	}
}

// NonMaximumSuppression implements a Non-Maximum Suppression (NMS) algorithm
// over candidates sorted by SortAscending.  The highest confidence candidate
// is repeatedly taken from the end and kept unless its IoU with an already
// kept box is greater than maxIoU.  The kept boxes are returned in
// descending confidence order.  The input slice is not modified
func NonMaximumSuppression(sorted []geometry.ScoredRect, maxIoU float32) []geometry.ScoredRect {

	selected := make([]geometry.ScoredRect, 0, len(sorted))

next:
	for i := len(sorted) - 1; i >= 0; i-- {
		cand := sorted[i]

		for _, kept := range selected {
			if geometry.IoU(kept.Rect, cand.Rect) > maxIoU {
				continue next
			}
		}

		selected = append(selected, cand)
	}

	return selected
}

// Suppress copies and sorts the candidates then runs NonMaximumSuppression
// on them
func Suppress(cands []geometry.ScoredRect, maxIoU float32) []geometry.ScoredRect {

	sorted := make([]geometry.ScoredRect, len(cands))
	copy(sorted, cands)

	SortAscending(sorted)

	return NonMaximumSuppression(sorted, maxIoU)
}
