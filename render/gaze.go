package render

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r3"
)

// GazeStyle defines the parameters used for rendering gaze arrows
type GazeStyle struct {
	// LineSame defines if the color of the arrow should be the same color as
	// that of the face box.  If set to false then use the color specified at
	// LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// Length is the arrow length as a multiple of the face box width
	Length float64
	// CircleRadius of the dot drawn at the arrow origin, zero disables it
	CircleRadius int
}

// DefaultGazeStyle returns default gaze style settings
func DefaultGazeStyle() GazeStyle {
	return GazeStyle{
		LineSame:      false,
		LineColor:     Cyan,
		LineThickness: 3,
		Length:        1,
		CircleRadius:  0,
	}
}

// GazeArrows draws an arrow for each face from the center of its box in the
// direction the face is looking
func GazeArrows(img *gocv.Mat, faces []pipeline.FaceResult, style GazeStyle) {

	for i, face := range faces {

		lineClr := style.LineColor

		if style.LineSame {
			lineClr = faceColor(i)
		}

		box := face.Box.Rect.Scale(img.Cols(), img.Rows())
		start, end := arrowPoints(box, face.Gaze.Vector, style.Length)

		gocv.ArrowedLine(img, start, end, lineClr, style.LineThickness)

		if style.CircleRadius > 0 {
			gocv.Circle(img, start, style.CircleRadius, lineClr, -1)
		}
	}
}

// arrowPoints returns the start and end of a gaze arrow for the pixel box.
// The arrow is the x and y components of the gaze vector projected onto the
// image plane, scaled by the box width
func arrowPoints(box image.Rectangle, v r3.Vec, length float64) (image.Point, image.Point) {

	l := float64(box.Dx()) * length
	cx := float64(box.Min.X) + float64(box.Dx())/2
	cy := float64(box.Min.Y) + float64(box.Dy())/2

	start := image.Pt(int(math.Round(cx)), int(math.Round(cy)))
	end := image.Pt(int(math.Round(cx+l*v.X)), int(math.Round(cy+l*v.Y)))

	return start, end
}
