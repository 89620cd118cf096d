package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/geometry"
	"github.com/swdee/go-gaze/postprocess"
	"github.com/swdee/go-gaze/preprocess"
)

// Frame is a single video frame handed to the pipeline
type Frame struct {
	// Detection is the frame at the detection model resolution
	Detection *gaze.PixelBuffer
	// Source is the frame at capture resolution used for cropping faces, if
	// nil the Detection buffer is used
	Source *gaze.PixelBuffer
}

// ROISource returns the buffer faces are cropped from
func (f Frame) ROISource() *gaze.PixelBuffer {
	if f.Source != nil {
		return f.Source
	}
	return f.Detection
}

// FaceResult is a detected face and its estimated gaze
type FaceResult struct {
	Box  geometry.ScoredRect      `json:"box"`
	Gaze postprocess.GazeEstimate `json:"gaze"`
}

// Timing records how long each stage of a frame took
type Timing struct {
	Detect time.Duration `json:"detect"`
	Gaze   time.Duration `json:"gaze"`
	Total  time.Duration `json:"total"`
}

// FrameResult is the output of the pipeline for one frame.  Faces are in
// descending confidence order
type FrameResult struct {
	StreamID string       `json:"stream_id"`
	Sequence int64        `json:"sequence"`
	Faces    []FaceResult `json:"faces"`
	Timing   Timing       `json:"timing"`
	// Err is set when the frame was skipped because of an error
	Err error `json:"-"`
	// Frame is the frame the result was computed from
	Frame Frame `json:"-"`
}

// Processor runs the pipeline on a single frame
type Processor interface {
	Process(ctx context.Context, frame Frame) (FrameResult, error)
}

// Pipeline runs face detection followed by per face gaze estimation on a
// frame.  A Pipeline is used by one stream at a time
type Pipeline struct {
	cfg        Config
	detector   gaze.DetectionEngine
	gazeEngine gaze.GazeEngine
	detectNorm *preprocess.Normalizer
	gazeNorm   *preprocess.Normalizer
	faces      *postprocess.UltraFace
	log        logrus.FieldLogger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger used by the pipeline
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// New returns a Pipeline using the given detection and gaze engines
func New(cfg Config, detector gaze.DetectionEngine, gazeEngine gaze.GazeEngine,
	opts ...Option) (*Pipeline, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	if detector == nil || gazeEngine == nil {
		return nil, errors.New("detection and gaze engines are required")
	}

	p := &Pipeline{
		cfg:        cfg,
		detector:   detector,
		gazeEngine: gazeEngine,
		detectNorm: &preprocess.Normalizer{
			Width:  cfg.DetectWidth,
			Height: cfg.DetectHeight,
			Mean:   cfg.Mean,
			Std:    cfg.Std,
		},
		gazeNorm: &preprocess.Normalizer{
			Width:  cfg.GazeWidth,
			Height: cfg.GazeHeight,
			Mean:   cfg.Mean,
			Std:    cfg.Std,
		},
		faces: postprocess.NewUltraFace(postprocess.UltraFaceParams{
			MinConfidence: cfg.MinConfidence,
			MaxIoU:        cfg.MaxIoU,
		}),
		log: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process runs the full pipeline on a frame.  A frame without faces returns
// an empty result without running the gaze model.  Faces whose region lies
// outside the frame are skipped
func (p *Pipeline) Process(ctx context.Context, frame Frame) (FrameResult, error) {

	start := time.Now()
	res := FrameResult{Frame: frame, Faces: make([]FaceResult, 0)}

	faces, err := p.detect(ctx, frame.Detection)

	if err != nil {
		return res, err
	}

	res.Timing.Detect = time.Since(start)
	gazeStart := time.Now()
	src := frame.ROISource()

	for _, face := range faces {

		est, err := p.estimate(ctx, src, face.Rect)

		if errors.Is(err, preprocess.ErrEmptyROI) {
			p.log.WithField("box", face.Rect.String()).Debug("skipping face outside frame")
			continue
		}

		if err != nil {
			return FrameResult{Frame: frame}, err
		}

		res.Faces = append(res.Faces, FaceResult{
			Box:  face,
			Gaze: est,
		})
	}

	res.Timing.Gaze = time.Since(gazeStart)
	res.Timing.Total = time.Since(start)

	return res, nil
}

// detect normalizes the frame, runs the detection model and returns the
// suppressed faces in descending confidence order
func (p *Pipeline) detect(ctx context.Context, buf *gaze.PixelBuffer) ([]geometry.ScoredRect, error) {

	tensor, err := p.detectNorm.Normalize(buf)

	if err != nil {
		return nil, fmt.Errorf("error normalizing frame: %w", err)
	}

	out, err := p.detector.Detect(ctx, tensor)

	if err != nil {
		return nil, gaze.NewInferenceError(gaze.StageDetection, err)
	}

	if err := out.Validate(p.cfg.NumPriors); err != nil {
		return nil, gaze.NewInferenceError(gaze.StageDetection, err)
	}

	cands := p.faces.Decode(out)

	postprocess.SortAscending(cands)

	return postprocess.NonMaximumSuppression(cands, p.cfg.MaxIoU), nil
}

// estimate crops the face out of the source frame and runs the gaze model
// on it
func (p *Pipeline) estimate(ctx context.Context, src *gaze.PixelBuffer,
	box geometry.Rect) (postprocess.GazeEstimate, error) {

	roi, err := preprocess.ExtractROI(src, box, p.cfg.GazeWidth, p.cfg.GazeHeight)

	if err != nil {
		return postprocess.GazeEstimate{}, err
	}

	tensor, err := p.gazeNorm.Normalize(roi)

	if err != nil {
		return postprocess.GazeEstimate{}, fmt.Errorf("error normalizing face: %w", err)
	}

	out, err := p.gazeEngine.EstimateGaze(ctx, tensor)

	if err != nil {
		return postprocess.GazeEstimate{}, gaze.NewInferenceError(gaze.StageGaze, err)
	}

	est, err := postprocess.DecodeGaze(out)

	if err != nil {
		return postprocess.GazeEstimate{}, gaze.NewInferenceError(gaze.StageGaze, err)
	}

	return est, nil
}
