package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
)

// boxLabel holds the precalculated rendering details of a box label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// FaceBoxes renders the bounding boxes around the faces detected with their
// confidence.  Face boxes are in normalized coordinates and are scaled to the
// size of img
func FaceBoxes(img *gocv.Mat, faces []pipeline.FaceResult, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(faces))

	for i, face := range faces {

		useClr := faceColor(i)

		// draw rectangle around detected face
		rect := face.Box.Rect.Scale(img.Cols(), img.Rows())
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("face %.2f", face.Box.Confidence)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		centerX := font.labelCenterX(rect.Min.X, rect.Max.X, textSize.X, lineThickness)

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, rect.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all box labels last so they are the top most layer and don't get
	// overlapped by neighbouring boxes
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Banner renders the frame number, face count and stage timings in a strip
// across the top of the image
func Banner(img *gocv.Mat, res pipeline.FrameResult, font Font) {

	// blank out background video
	rect := image.Rect(0, 0, img.Cols(), 22)
	gocv.Rectangle(img, rect, Black, -1)

	text := fmt.Sprintf("Frame: %d, Faces: %d, Detect: %.2fms, Gaze: %.2fms, Total: %.2fms",
		res.Sequence, len(res.Faces),
		float64(res.Timing.Detect.Microseconds())/1000,
		float64(res.Timing.Gaze.Microseconds())/1000,
		float64(res.Timing.Total.Microseconds())/1000,
	)

	if res.Err != nil {
		text = fmt.Sprintf("Frame: %d, skipped: %v", res.Sequence, res.Err)
	}

	gocv.PutTextWithParams(img, text, image.Pt(4, 15), font.Face, font.Scale,
		Pink, font.Thickness, font.LineType, false)
}
