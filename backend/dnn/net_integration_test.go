//go:build integration
// +build integration

package dnn

import (
	"context"
	"os"
	"testing"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/postprocess"
)

func TestUltraFaceNet(t *testing.T) {

	modelFile := os.Getenv("ULTRAFACE_MODEL")

	if modelFile == "" {
		t.Fatalf("No Model file provided in ULTRAFACE_MODEL")
	}

	net, err := Open(modelFile, Options{
		Width:       320,
		Height:      240,
		OutputNames: []string{"scores", "boxes"},
	})

	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	defer net.Close()

	out, err := gaze.NewDetector(net).Detect(context.Background(), gaze.NewImageTensor(3, 240, 320))

	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if err := out.Validate(postprocess.UltraFace320.NumPriors()); err != nil {
		t.Errorf("unexpected output layout: %v", err)
	}

	if dims := net.OutputInfo()[0].Dims; len(dims) == 0 {
		t.Errorf("expected output dims after inference")
	}
}
