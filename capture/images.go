package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/swdee/go-gaze"
	"github.com/swdee/go-gaze/pipeline"
	"gocv.io/x/gocv"
)

// Images is a pipeline.Source returning one frame per image file.  Each frame
// keeps the full resolution image as its source
type Images struct {
	paths []string
	next  int
	last  string
	conv  converter
	mu    sync.Mutex
}

// NewImages returns a source for the image files, frames are resized to the
// detection resolution
func NewImages(paths []string, detectWidth, detectHeight int) *Images {
	return &Images{
		paths: append([]string(nil), paths...),
		conv: converter{
			width:      detectWidth,
			height:     detectHeight,
			keepSource: true,
		},
	}
}

// Last returns the file of the most recent frame read successfully
func (s *Images) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Read loads the next image file, once all files are read it returns
// gaze.ErrSourceClosed
func (s *Images) Read(ctx context.Context) (pipeline.Frame, error) {

	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.paths) {
		s.conv.close()
		return pipeline.Frame{}, gaze.ErrSourceClosed
	}

	path := s.paths[s.next]
	s.next++

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return pipeline.Frame{}, fmt.Errorf("error reading image file %s", path)
	}

	frame, err := s.conv.frame(img)

	if err != nil {
		return frame, err
	}

	s.last = path

	return frame, nil
}
