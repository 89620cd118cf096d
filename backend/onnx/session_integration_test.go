//go:build integration
// +build integration

package onnx

import (
	"context"
	"os"
	"testing"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/postprocess"
	"github.com/swdee/go-gaze/preprocess"
)

func TestUltraFaceSession(t *testing.T) {

	modelFile := os.Getenv("ULTRAFACE_MODEL")

	if modelFile == "" {
		t.Fatalf("No Model file provided in ULTRAFACE_MODEL")
	}

	if err := Init(os.Getenv("ORT_LIBRARY")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sess, err := Open(modelFile, Options{IntraOpThreads: 1})

	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	defer sess.Close()

	width, height := sess.InputSize()

	if width != 320 || height != 240 {
		t.Fatalf("expected a 320x240 model, got %dx%d", width, height)
	}

	// a blank frame has no faces
	tensor, err := preprocess.NewNormalizer(width, height).Normalize(gaze.NewPixelBuffer(width, height))

	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	out, err := gaze.NewDetector(sess).Detect(context.Background(), tensor)

	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if err := out.Validate(postprocess.UltraFace320.NumPriors()); err != nil {
		t.Fatalf("unexpected output layout: %v", err)
	}

	faces := postprocess.NewUltraFace(postprocess.DefaultUltraFaceParams()).DetectFaces(out)

	if len(faces) != 0 {
		t.Errorf("expected no faces in blank frame, got %d", len(faces))
	}
}

func TestGazeSession(t *testing.T) {

	modelFile := os.Getenv("GAZE_MODEL")

	if modelFile == "" {
		t.Fatalf("No Model file provided in GAZE_MODEL")
	}

	if err := Init(os.Getenv("ORT_LIBRARY")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sess, err := Open(modelFile, Options{})

	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	defer sess.Close()

	tensor, err := preprocess.NewNormalizer(224, 224).Normalize(gaze.NewPixelBuffer(224, 224))

	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	out, err := gaze.NewGazeEstimator(sess).EstimateGaze(context.Background(), tensor)

	if err != nil {
		t.Fatalf("EstimateGaze failed: %v", err)
	}

	if _, err := postprocess.DecodeGaze(out); err != nil {
		t.Errorf("DecodeGaze failed: %v", err)
	}
}
