package render

import (
	"context"
	"fmt"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
)

// Style groups the settings used to annotate a frame
type Style struct {
	Font          Font
	Gaze          GazeStyle
	LineThickness int
	// Banner enables the frame statistics strip
	Banner bool
}

// DefaultStyle returns default annotation settings
func DefaultStyle() Style {
	return Style{
		Font:          DefaultFont(),
		Gaze:          DefaultGazeStyle(),
		LineThickness: 2,
		Banner:        true,
	}
}

// Mat converts an RGBA PixelBuffer into a new BGR Mat, the caller must Close
// the returned Mat
func Mat(buf *gaze.PixelBuffer) (gocv.Mat, error) {

	if err := buf.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	rgba, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC4, buf.Pix)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating Mat from pixel buffer: %w", err)
	}

	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	return bgr, nil
}

// Annotate draws the face boxes and gaze arrows of a result onto a BGR copy
// of the frame the faces were cropped from.  The caller must Close the
// returned Mat
func Annotate(res pipeline.FrameResult, style Style) (gocv.Mat, error) {

	src := res.Frame.ROISource()

	if src == nil {
		return gocv.NewMat(), fmt.Errorf("frame %d has no pixels: %w",
			res.Sequence, gaze.ErrDimensionMismatch)
	}

	img, err := Mat(src)

	if err != nil {
		return img, err
	}

	FaceBoxes(&img, res.Faces, style.Font, style.LineThickness)
	GazeArrows(&img, res.Faces, style.Gaze)

	if style.Banner {
		Banner(&img, res, style.Font)
	}

	return img, nil
}

// EncodeJPEG annotates the frame of a result and encodes it as a JPEG
func EncodeJPEG(res pipeline.FrameResult, style Style) ([]byte, error) {

	img, err := Annotate(res, style)
	defer img.Close()

	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding frame %d: %w", res.Sequence, err)
	}

	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// FileSink writes each annotated frame to an image file, the file format is
// chosen by the extension of the name returned by Name
type FileSink struct {
	Style Style
	// Name returns the output file for a result
	Name func(res pipeline.FrameResult) string
}

// Consume annotates and saves the frame of a result
func (f *FileSink) Consume(ctx context.Context, res pipeline.FrameResult) error {

	img, err := Annotate(res, f.Style)
	defer img.Close()

	if err != nil {
		return err
	}

	name := f.Name(res)

	if ok := gocv.IMWrite(name, img); !ok {
		return fmt.Errorf("failed to write image file %s", name)
	}

	return nil
}

// WindowSink shows each annotated frame in a desktop window.  It must be
// driven from the main OS thread
type WindowSink struct {
	style  Style
	window *gocv.Window
}

// NewWindowSink opens a window with the given title
func NewWindowSink(title string, style Style) *WindowSink {
	return &WindowSink{
		style:  style,
		window: gocv.NewWindow(title),
	}
}

// Consume annotates and shows the frame of a result, closing the window
// stops the stream with gaze.ErrSourceClosed
func (w *WindowSink) Consume(ctx context.Context, res pipeline.FrameResult) error {

	img, err := Annotate(res, w.style)
	defer img.Close()

	if err != nil {
		return err
	}

	w.window.IMShow(img)
	w.window.WaitKey(1)

	if !w.window.IsOpen() {
		return gaze.ErrSourceClosed
	}

	return nil
}

// Close closes the window
func (w *WindowSink) Close() error {
	return w.window.Close()
}
