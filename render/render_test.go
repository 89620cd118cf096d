package render

import (
	"context"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/geometry"
	"github.com/swdee/go-gaze/pipeline"
	"github.com/swdee/go-gaze/postprocess"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r3"
)

func solidBuffer(width, height int, r, g, b uint8) *gaze.PixelBuffer {
	buf := gaze.NewPixelBuffer(width, height)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, 255
	}
	return buf
}

func TestArrowPoints(t *testing.T) {

	box := image.Rect(10, 10, 30, 30)

	tests := []struct {
		name   string
		v      r3.Vec
		length float64
		start  image.Point
		end    image.Point
	}{
		{"looking at camera", r3.Vec{X: 0, Y: 0, Z: -1}, 1, image.Pt(20, 20), image.Pt(20, 20)},
		{"looking left", r3.Vec{X: -1, Y: 0, Z: 0}, 1, image.Pt(20, 20), image.Pt(0, 20)},
		{"looking up", r3.Vec{X: 0, Y: -1, Z: 0}, 0.5, image.Pt(20, 20), image.Pt(20, 10)},
		{"diagonal", r3.Vec{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}, 1, image.Pt(20, 20), image.Pt(34, 34)},
	}

	for _, tc := range tests {
		start, end := arrowPoints(box, tc.v, tc.length)

		if start != tc.start || end != tc.end {
			t.Errorf("%s: expected %v->%v, got %v->%v", tc.name, tc.start, tc.end, start, end)
		}
	}
}

func TestMat(t *testing.T) {

	img, err := Mat(solidBuffer(8, 6, 255, 10, 20))
	defer img.Close()

	if err != nil {
		t.Fatalf("Mat failed: %v", err)
	}

	if img.Cols() != 8 || img.Rows() != 6 || img.Channels() != 3 {
		t.Fatalf("unexpected Mat %dx%d with %d channels", img.Cols(), img.Rows(), img.Channels())
	}

	if px := img.GetVecbAt(3, 4); px[0] != 20 || px[1] != 10 || px[2] != 255 {
		t.Errorf("expected BGR (20,10,255), got %v", px)
	}

	bad, err := Mat(&gaze.PixelBuffer{Width: 2, Height: 2, Pix: make([]uint8, 3)})
	defer bad.Close()

	if err == nil {
		t.Errorf("expected error for short pixel buffer")
	}
}

func testResult() pipeline.FrameResult {
	return pipeline.FrameResult{
		Sequence: 1,
		Frame:    pipeline.Frame{Detection: solidBuffer(40, 40, 0, 0, 0)},
		Faces: []pipeline.FaceResult{{
			Box: geometry.ScoredRect{
				Rect:       geometry.NewRect(0.25, 0.25, 0.5, 0.5),
				Confidence: 0.9,
			},
			Gaze: postprocess.NewGazeEstimate(0, 0),
		}},
	}
}

func TestAnnotate(t *testing.T) {

	style := DefaultStyle()
	style.Banner = false

	img, err := Annotate(testResult(), style)
	defer img.Close()

	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	// left edge of the face box
	if px := img.GetVecbAt(20, 10); px[0] != 0 || px[1] != 255 || px[2] != 0 {
		t.Errorf("expected green box edge, got %v", px)
	}

	// inside the box away from the arrow
	if px := img.GetVecbAt(25, 15); px[0] != 0 || px[1] != 0 || px[2] != 0 {
		t.Errorf("expected untouched pixel inside box, got %v", px)
	}

	if _, err := Annotate(pipeline.FrameResult{}, style); err == nil {
		t.Errorf("expected error for result without frame")
	}
}

func TestFileSink(t *testing.T) {

	dir := t.TempDir()

	sink := &FileSink{
		Style: DefaultStyle(),
		Name: func(res pipeline.FrameResult) string {
			return filepath.Join(dir, "frame.jpg")
		},
	}

	if err := sink.Consume(context.Background(), testResult()); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	img := gocv.IMRead(filepath.Join(dir, "frame.jpg"), gocv.IMReadColor)
	defer img.Close()

	if img.Empty() || img.Cols() != 40 {
		t.Errorf("expected 40px wide annotated image on disk")
	}

	data, err := EncodeJPEG(testResult(), DefaultStyle())

	if err != nil || len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("expected JPEG encoded frame, got %d bytes and %v", len(data), err)
	}

	if _, err := os.Stat(filepath.Join(dir, "frame.jpg")); err != nil {
		t.Errorf("expected file written: %v", err)
	}
}
