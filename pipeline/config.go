package pipeline

import (
	"errors"
	"fmt"

	"github.com/swdee/go-gaze/postprocess"
	"github.com/swdee/go-gaze/preprocess"
)

// Config defines the operator settings of the face detection and gaze
// estimation pipeline
type Config struct {
	// DetectWidth is the detection model input width
	DetectWidth int `mapstructure:"detect_width"`
	// DetectHeight is the detection model input height
	DetectHeight int `mapstructure:"detect_height"`
	// NumPriors is the number of candidate boxes the detection model outputs,
	// zero disables the check
	NumPriors int `mapstructure:"num_priors"`
	// GazeWidth is the gaze model input width
	GazeWidth int `mapstructure:"gaze_width"`
	// GazeHeight is the gaze model input height
	GazeHeight int `mapstructure:"gaze_height"`
	// MinConfidence is the minimum face score, exclusive
	MinConfidence float32 `mapstructure:"min_confidence"`
	// MaxIoU is the NMS overlap threshold, exclusive
	MaxIoU float32 `mapstructure:"max_iou"`
	// Mean is the per channel RGB normalization mean
	Mean [3]float32 `mapstructure:"mean"`
	// Std is the per channel RGB normalization standard deviation
	Std [3]float32 `mapstructure:"std"`
}

// DefaultConfig returns the configuration for the 320x240 UltraFace model
// featuring:
// - Detection input: 320x240 with 4420 candidate boxes
// - Gaze input: 224x224
// - MinConfidence: 0.72
// - MaxIoU: 0.5
// - Mean/Std: ImageNet statistics
func DefaultConfig() Config {
	return ConfigForVariant(postprocess.UltraFace320)
}

// ConfigForVariant returns the default configuration for the given UltraFace
// model variant
func ConfigForVariant(v postprocess.UltraFaceVariant) Config {

	params := postprocess.DefaultUltraFaceParams()

	return Config{
		DetectWidth:   v.Width(),
		DetectHeight:  v.Height(),
		NumPriors:     v.NumPriors(),
		GazeWidth:     224,
		GazeHeight:    224,
		MinConfidence: params.MinConfidence,
		MaxIoU:        params.MaxIoU,
		Mean:          preprocess.ImageNetMean,
		Std:           preprocess.ImageNetStd,
	}
}

// Validate checks the configuration values are usable
func (c Config) Validate() error {

	var errs []error

	if c.DetectWidth <= 0 || c.DetectHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid detection size %dx%d", c.DetectWidth, c.DetectHeight))
	}

	if c.GazeWidth <= 0 || c.GazeHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid gaze size %dx%d", c.GazeWidth, c.GazeHeight))
	}

	if c.NumPriors < 0 {
		errs = append(errs, fmt.Errorf("invalid number of priors %d", c.NumPriors))
	}

	if c.MinConfidence < 0 || c.MinConfidence >= 1 {
		errs = append(errs, fmt.Errorf("min confidence %f outside [0,1)", c.MinConfidence))
	}

	if c.MaxIoU < 0 || c.MaxIoU > 1 {
		errs = append(errs, fmt.Errorf("max IoU %f outside [0,1]", c.MaxIoU))
	}

	for i, s := range c.Std {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("standard deviation of channel %d must be positive", i))
		}
	}

	return errors.Join(errs...)
}
