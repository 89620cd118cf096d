package postprocess

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/swdee/go-gaze/geometry"
)

func scored(x, y, w, h, conf float32) geometry.ScoredRect {
	return geometry.ScoredRect{Rect: geometry.NewRect(x, y, w, h), Confidence: conf}
}

func TestSuppressOverlapping(t *testing.T) {

	a := scored(0, 0, 1, 1, 0.9)
	b := scored(0.05, 0, 1, 1, 0.8)
	c := scored(2, 2, 1, 1, 0.85)

	got := Suppress([]geometry.ScoredRect{b, a, c}, 0.5)
	expected := []geometry.ScoredRect{a, c}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %+v, got %+v", expected, got)
	}
}

func TestSuppressEmptyAndSingle(t *testing.T) {

	if got := Suppress(nil, 0.5); len(got) != 0 {
		t.Errorf("expected empty output, got %+v", got)
	}

	single := []geometry.ScoredRect{scored(0.1, 0.1, 0.2, 0.2, 0.8)}

	if got := Suppress(single, 0.5); !reflect.DeepEqual(got, single) {
		t.Errorf("expected %+v, got %+v", single, got)
	}
}

func TestSuppressThresholdIsStrict(t *testing.T) {

	a := scored(0, 0, 1, 1, 0.9)
	// IoU with a is 0.5/(1+1e-7), just at the threshold, so it is kept
	b := scored(0, 0, 0.5, 1, 0.8)

	got := Suppress([]geometry.ScoredRect{a, b}, 0.5)

	if len(got) != 2 {
		t.Errorf("expected both boxes at the threshold to be kept, got %+v", got)
	}

	got = Suppress([]geometry.ScoredRect{a, b}, 0.4)

	if len(got) != 1 || got[0] != a {
		t.Errorf("expected only the higher confidence box, got %+v", got)
	}
}

func TestSuppressTieBreakFirstInOrder(t *testing.T) {

	first := scored(0.01, 0, 1, 1, 0.9)
	second := scored(0, 0, 1, 1, 0.9)

	got := Suppress([]geometry.ScoredRect{first, second}, 0.5)

	if len(got) != 1 || got[0] != first {
		t.Errorf("expected first input to win tie, got %+v", got)
	}

	got = Suppress([]geometry.ScoredRect{second, first}, 0.5)

	if len(got) != 1 || got[0] != second {
		t.Errorf("expected first input to win tie, got %+v", got)
	}
}

func TestSortAscending(t *testing.T) {

	a := scored(0, 0, 1, 1, 0.5)
	b := scored(1, 0, 1, 1, 0.9)
	c := scored(2, 0, 1, 1, 0.5)
	d := scored(3, 0, 1, 1, 0.7)

	cands := []geometry.ScoredRect{a, b, c, d}
	SortAscending(cands)

	// equal confidences have the first input last
	expected := []geometry.ScoredRect{c, a, d, b}

	if !reflect.DeepEqual(cands, expected) {
		t.Errorf("expected %+v, got %+v", expected, cands)
	}
}

func TestNonMaximumSuppressionDoesNotModifyInput(t *testing.T) {

	sorted := []geometry.ScoredRect{scored(0.05, 0, 1, 1, 0.8), scored(0, 0, 1, 1, 0.9)}
	orig := append([]geometry.ScoredRect(nil), sorted...)

	NonMaximumSuppression(sorted, 0.5)

	if !reflect.DeepEqual(sorted, orig) {
		t.Errorf("input modified: %+v", sorted)
	}
}

func TestSuppressProperties(t *testing.T) {

	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {

		n := rng.Intn(30)
		cands := make([]geometry.ScoredRect, n)

		for i := range cands {
			cands[i] = scored(rng.Float32()*0.8, rng.Float32()*0.8,
				0.05+rng.Float32()*0.3, 0.05+rng.Float32()*0.3,
				float32(rng.Intn(10))/10)
		}

		maxIoU := float32(0.5)
		got := Suppress(cands, maxIoU)

		if len(got) > len(cands) {
			t.Fatalf("output larger than input: %d > %d", len(got), len(cands))
		}

		for i := range got {
			if i > 0 && got[i-1].Confidence < got[i].Confidence {
				t.Fatalf("output not in descending confidence order: %+v", got)
			}

			for j := i + 1; j < len(got); j++ {
				if iou := geometry.IoU(got[i].Rect, got[j].Rect); iou > maxIoU {
					t.Fatalf("kept boxes %d and %d overlap with IoU %f", i, j, iou)
				}
			}
		}

		// idempotent
		if again := Suppress(got, maxIoU); !reflect.DeepEqual(again, got) {
			t.Fatalf("suppression not idempotent:\n%+v\n%+v", got, again)
		}
	}
}

func TestSuppressPixelBoxes(t *testing.T) {

	tests := []struct {
		name  string
		cands []geometry.ScoredRect
		want  []float32
	}{
		{
			name:  "overlapping pair keeps higher score",
			cands: []geometry.ScoredRect{scored(0, 0, 10, 10, 0.9), scored(1, 1, 10, 10, 0.8)},
			want:  []float32{0.9},
		},
		{
			name:  "disjoint pair keeps both",
			cands: []geometry.ScoredRect{scored(0, 0, 10, 10, 0.9), scored(100, 100, 10, 10, 0.8)},
			want:  []float32{0.9, 0.8},
		},
	}

	for _, tc := range tests {
		got := Suppress(tc.cands, 0.5)

		if len(got) != len(tc.want) {
			t.Errorf("%s: expected %d boxes, got %d: %+v", tc.name, len(tc.want), len(got), got)
			continue
		}

		for i, conf := range tc.want {
			if got[i].Confidence != conf {
				t.Errorf("%s: box %d expected confidence %f, got %f", tc.name, i, conf, got[i].Confidence)
			}
		}
	}
}
