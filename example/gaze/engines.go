package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/backend/dnn"
	"github.com/swdee/go-gaze/backend/onnx"
	"github.com/swdee/go-gaze/pipeline"
)

// openModel loads a model file with the configured backend
func openModel(path string, width, height int) (gaze.Model, error) {

	switch viper.GetString("backend") {
	case "onnx":
		if err := onnx.Init(viper.GetString("onnx.library")); err != nil {
			return nil, err
		}

		return onnx.Open(path, onnx.Options{
			IntraOpThreads: viper.GetInt("onnx.intra_op_threads"),
			InterOpThreads: viper.GetInt("onnx.inter_op_threads"),
		})

	case "dnn":
		return dnn.Open(path, dnn.Options{
			Backend: viper.GetString("dnn.backend"),
			Target:  viper.GetString("dnn.target"),
			Width:   width,
			Height:  height,
		})

	default:
		return nil, fmt.Errorf("unknown backend %q", viper.GetString("backend"))
	}
}

// engines holds a pool of detection and gaze models, one of each per
// stream
type engines struct {
	detect *gaze.Pool
	gaze   *gaze.Pool
}

// openEngines loads size instances of the detection and gaze models
func openEngines(size int, cfg pipeline.Config) (*engines, error) {

	detect, err := gaze.NewPool(size, func(i int) (gaze.Model, error) {
		log.WithField("instance", i).Debug("loading detection model")
		return openModel(viper.GetString("models.detect"), cfg.DetectWidth, cfg.DetectHeight)
	})

	if err != nil {
		return nil, fmt.Errorf("error loading detection model: %w", err)
	}

	gz, err := gaze.NewPool(size, func(i int) (gaze.Model, error) {
		log.WithField("instance", i).Debug("loading gaze model")
		return openModel(viper.GetString("models.gaze"), cfg.GazeWidth, cfg.GazeHeight)
	})

	if err != nil {
		detect.Close()
		return nil, fmt.Errorf("error loading gaze model: %w", err)
	}

	return &engines{detect: detect, gaze: gz}, nil
}

// newPipeline takes a detection and gaze model from the pools and builds a
// pipeline with them.  The returned release func hands the models back
func (e *engines) newPipeline(ctx context.Context, cfg pipeline.Config) (*pipeline.Pipeline, func(), error) {

	det, err := e.detect.Get(ctx)

	if err != nil {
		return nil, nil, err
	}

	gz, err := e.gaze.Get(ctx)

	if err != nil {
		e.detect.Return(det)
		return nil, nil, err
	}

	release := func() {
		e.detect.Return(det)
		e.gaze.Return(gz)
	}

	p, err := pipeline.New(cfg, gaze.NewDetector(det), gaze.NewGazeEstimator(gz),
		pipeline.WithLogger(log))

	if err != nil {
		release()
		return nil, nil, err
	}

	return p, release, nil
}

// Close releases all models
func (e *engines) Close() {
	e.detect.Close()
	e.gaze.Close()

	if viper.GetString("backend") == "onnx" {
		if err := onnx.Shutdown(); err != nil {
			log.WithError(err).Warn("failed to shutdown onnxruntime")
		}
	}
}
