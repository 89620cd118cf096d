package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/capture"
	"github.com/swdee/go-gaze/pipeline"
	"github.com/swdee/go-gaze/publish"
	"github.com/swdee/go-gaze/render"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run face detection and gaze estimation on camera streams",
	RunE:  runStreams,
}

func init() {
	flags := runCmd.Flags()

	flags.StringSlice("camera", []string{"0"}, "Camera index, video file or stream URL, repeat for multiple streams")
	flags.Float64("fps", 30, "Maximum frames per second processed per stream, 0 for unlimited")
	flags.Bool("window", false, "Show annotated frames in a window, single stream only")
	flags.String("publish", "", "Address to serve results on, eg: :8080")
	flags.IntSlice("cpu", nil, "CPU cores to pin the process to")

	bindFlag("cameras", flags.Lookup("camera"))
	bindFlag("fps", flags.Lookup("fps"))
	bindFlag("window", flags.Lookup("window"))
	bindFlag("publish.addr", flags.Lookup("publish"))
	bindFlag("cpu_cores", flags.Lookup("cpu"))
}

// stream is a single camera run through its own pipeline
type stream struct {
	camera  *capture.Camera
	runner  *pipeline.Runner
	release func()
}

func runStreams(cmd *cobra.Command, args []string) error {

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cameras := viper.GetStringSlice("cameras")
	window := viper.GetBool("window")

	if len(cameras) == 0 {
		return fmt.Errorf("no cameras configured")
	}

	if window && len(cameras) > 1 {
		return fmt.Errorf("window output supports a single camera, %d given", len(cameras))
	}

	if cores := viper.GetIntSlice("cpu_cores"); len(cores) > 0 {
		if err := gaze.SetCPUAffinityByCores(cores); err != nil {
			return fmt.Errorf("error setting cpu affinity: %w", err)
		}
	}

	cfg, err := pipelineConfig()

	if err != nil {
		return err
	}

	eng, err := openEngines(len(cameras), cfg)

	if err != nil {
		return err
	}

	defer eng.Close()

	var sinks pipeline.MultiSink
	var streams []*stream

	defer func() {
		for _, s := range streams {
			s.camera.Close()
			s.release()
		}
	}()

	var server *publish.Server

	if addr := viper.GetString("publish.addr"); addr != "" {
		server = publish.NewServer(
			publish.WithLogger(log),
			publish.WithEncoder(func(res pipeline.FrameResult) ([]byte, error) {
				return render.EncodeJPEG(res, render.DefaultStyle())
			}),
			publish.WithStats(func() map[string]pipeline.Stats {
				stats := make(map[string]pipeline.Stats, len(streams))
				for _, s := range streams {
					stats[s.runner.StreamID()] = s.runner.Stats()
				}
				return stats
			}),
		)

		sinks = append(sinks, server)
	}

	if window {
		win := render.NewWindowSink("gaze", render.DefaultStyle())
		defer win.Close()

		sinks = append(sinks, win)
	}

	if len(sinks) == 0 {
		sinks = append(sinks, pipeline.SinkFunc(logFaces))
	}

	for i, device := range cameras {
		s, err := openStream(ctx, eng, cfg, device, i, sinks)

		if err != nil {
			return err
		}

		streams = append(streams, s)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(streams)+1)

	if server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx, viper.GetString("publish.addr")); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	runStream := func(s *stream) {
		err := s.runner.Run(ctx)

		switch {
		case err == nil, errors.Is(err, context.Canceled), errors.Is(err, gaze.ErrSourceClosed):
			log.WithField("stream", s.runner.StreamID()).Info("stream stopped")
		default:
			errCh <- fmt.Errorf("stream %s: %w", s.runner.StreamID(), err)
		}
	}

	// the window must be driven from the main goroutine
	if window {
		runStream(streams[0])
		cancel()
	} else {
		var streamWG sync.WaitGroup

		for _, s := range streams {
			streamWG.Add(1)
			go func(s *stream) {
				defer streamWG.Done()
				runStream(s)
			}(s)
		}

		streamWG.Wait()
		cancel()
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// openStream opens a camera and builds the runner for it
func openStream(ctx context.Context, eng *engines, cfg pipeline.Config, device string,
	index int, sink pipeline.Sink) (*stream, error) {

	camera, err := capture.OpenCamera(device, capture.CameraOptions{
		DetectWidth:  cfg.DetectWidth,
		DetectHeight: cfg.DetectHeight,
		Width:        viper.GetInt("capture.width"),
		Height:       viper.GetInt("capture.height"),
		KeepSource:   viper.GetBool("capture.keep_source"),
	})

	if err != nil {
		return nil, err
	}

	p, release, err := eng.newPipeline(ctx, cfg)

	if err != nil {
		camera.Close()
		return nil, err
	}

	width, height := camera.Size()
	streamID := fmt.Sprintf("cam%d", index)

	log.WithFields(logrus.Fields{
		"stream": streamID,
		"device": device,
		"width":  width,
		"height": height,
		"fps":    camera.FPS(),
	}).Info("camera opened")

	runner := pipeline.NewRunner(p, camera, sink,
		pipeline.WithStreamID(streamID),
		pipeline.WithRate(viper.GetFloat64("fps")),
		pipeline.WithMaxReadErrors(viper.GetInt("max_read_errors")),
		pipeline.WithRunnerLogger(log),
	)

	return &stream{camera: camera, runner: runner, release: release}, nil
}

// logFaces logs the faces of each frame when no other output is configured
func logFaces(ctx context.Context, res pipeline.FrameResult) error {
	for i, face := range res.Faces {
		pitch, yaw := face.Gaze.Degrees()

		log.WithFields(logrus.Fields{
			"stream":     res.StreamID,
			"frame":      res.Sequence,
			"face":       i,
			"confidence": fmt.Sprintf("%.3f", face.Box.Confidence),
			"pitch":      fmt.Sprintf("%.1f", pitch),
			"yaw":        fmt.Sprintf("%.1f", yaw),
		}).Info("face")
	}
	return nil
}
