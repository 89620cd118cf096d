package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/swdee/go-gaze/capture"
	"github.com/swdee/go-gaze/pipeline"
	"github.com/swdee/go-gaze/render"
)

// outDir is the directory annotated images are saved to
var outDir string

var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Detect faces and their gaze in image files and save annotated copies",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImages,
}

func init() {
	imageCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to save annotated images to")
}

func runImages(cmd *cobra.Command, args []string) error {

	ctx := cmd.Context()

	cfg, err := pipelineConfig()

	if err != nil {
		return err
	}

	eng, err := openEngines(1, cfg)

	if err != nil {
		return err
	}

	defer eng.Close()

	p, release, err := eng.newPipeline(ctx, cfg)

	if err != nil {
		return err
	}

	defer release()

	images := capture.NewImages(args, cfg.DetectWidth, cfg.DetectHeight)

	files := &render.FileSink{
		Style: render.DefaultStyle(),
		Name: func(res pipeline.FrameResult) string {
			name := filepath.Base(images.Last())
			name = strings.TrimSuffix(name, filepath.Ext(name))
			return filepath.Join(outDir, name+"-gaze.jpg")
		},
	}

	report := pipeline.SinkFunc(func(ctx context.Context, res pipeline.FrameResult) error {
		for i, face := range res.Faces {
			pitch, yaw := face.Gaze.Degrees()

			log.WithFields(logrus.Fields{
				"file":       images.Last(),
				"face":       i,
				"box":        face.Box.Rect.String(),
				"confidence": fmt.Sprintf("%.3f", face.Box.Confidence),
				"pitch":      fmt.Sprintf("%.1f", pitch),
				"yaw":        fmt.Sprintf("%.1f", yaw),
			}).Info("face")
		}
		return nil
	})

	runner := pipeline.NewRunner(p, images, pipeline.MultiSink{report, files},
		pipeline.WithStreamID("images"), pipeline.WithRunnerLogger(log))

	if err := runner.Run(ctx); err != nil {
		return err
	}

	stats := runner.Stats()

	log.WithFields(logrus.Fields{
		"images":  stats.Frames,
		"skipped": stats.Skipped,
		"faces":   stats.Faces,
		"errors":  stats.ReadErrors,
	}).Info("done")

	return nil
}
