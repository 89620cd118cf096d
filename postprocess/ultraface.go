package postprocess

import (
	"fmt"
	"strings"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/geometry"
)

// UltraFace defines the struct for the UltraFace model inference post
// processing
type UltraFace struct {
	// Params are the Model configuration parameters
	Params UltraFaceParams
}

// UltraFaceParams defines the struct containing the UltraFace parameters to
// use for post processing operations
type UltraFaceParams struct {
	// MinConfidence is the foreground probability a candidate box must
	// exceed to be kept
	MinConfidence float32
	// MaxIoU is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	MaxIoU float32
}

// DefaultUltraFaceParams returns an instance of UltraFaceParams configured
// with the default values for face detection featuring:
// - MinConfidence: 0.72
// - MaxIoU: 0.5
func DefaultUltraFaceParams() UltraFaceParams {
	return UltraFaceParams{
		MinConfidence: 0.72,
		MaxIoU:        0.5,
	}
}

// NewUltraFace returns an instance of the UltraFace post processor
func NewUltraFace(p UltraFaceParams) *UltraFace {
	return &UltraFace{
		Params: p,
	}
}

// Decode converts the raw detection model output into scored rectangles.
// Box i is built from the corner points at Boxes[4i:4i+4] clamped to the
// normalized frame, its confidence is the foreground score at Scores[2i+1],
// and only boxes with a confidence strictly above MinConfidence are kept.
// Output order follows the model output order
func (u *UltraFace) Decode(out gaze.DetectionOutput) []geometry.ScoredRect {

	n := min(out.Len(), len(out.Scores)/2)
	faces := make([]geometry.ScoredRect, 0)

	for i := 0; i < n; i++ {

		score := out.Scores[i*2+1]

		if !(score > u.Params.MinConfidence) {
			continue
		}

		rect := geometry.RectFromPoints(
			clamp(out.Boxes[i*4+0], 0, 1),
			clamp(out.Boxes[i*4+1], 0, 1),
			clamp(out.Boxes[i*4+2], 0, 1),
			clamp(out.Boxes[i*4+3], 0, 1),
		)

		faces = append(faces, geometry.ScoredRect{
			Rect:       rect,
			Confidence: score,
		})
	}

	return faces
}

// DetectFaces decodes the model output and suppresses overlapping boxes,
// returning the faces in descending confidence order
func (u *UltraFace) DetectFaces(out gaze.DetectionOutput) []geometry.ScoredRect {
	return Suppress(u.Decode(out), u.Params.MaxIoU)
}

// UltraFaceVariant identifies one of the published UltraFace RFB model
// input resolutions
type UltraFaceVariant int

const (
	// UltraFace320 is the 320x240 model
	UltraFace320 UltraFaceVariant = iota
	// UltraFace320Quantized is the int8 quantized 320x240 model
	UltraFace320Quantized
	// UltraFace640 is the 640x480 model
	UltraFace640
)

// ParseUltraFaceVariant returns the variant for the names 320, 320-int8
// and 640
func ParseUltraFaceVariant(name string) (UltraFaceVariant, error) {

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "320", "320x240", "rfb-320":
		return UltraFace320, nil
	case "320-int8", "320q", "rfb-320-int8":
		return UltraFace320Quantized, nil
	case "640", "640x480", "rfb-640":
		return UltraFace640, nil
	}

	return 0, fmt.Errorf("unknown UltraFace variant: %s", name)
}

// Width returns the model input width
func (v UltraFaceVariant) Width() int {
	if v == UltraFace640 {
		return 640
	}
	return 320
}

// Height returns the model input height
func (v UltraFaceVariant) Height() int {
	if v == UltraFace640 {
		return 480
	}
	return 240
}

// NumPriors returns the number of candidate boxes the model outputs
func (v UltraFaceVariant) NumPriors() int {
	if v == UltraFace640 {
		return 17640
	}
	return 4420
}

// String returns the variant name
func (v UltraFaceVariant) String() string {
	switch v {
	case UltraFace320:
		return "320"
	case UltraFace320Quantized:
		return "320-int8"
	case UltraFace640:
		return "640"
	default:
		return "unknown"
	}
}
