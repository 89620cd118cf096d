package gaze

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the number of interleaved channels in a PixelBuffer
const BytesPerPixel = 4

// PixelBuffer is an image of Width x Height pixels stored row major as
// interleaved R, G, B, A bytes with no row padding
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed PixelBuffer of the given size
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
}

// PixelBufferFromBytes copies the RGBA bytes into a new PixelBuffer.  The
// byte slice must contain exactly width*height*4 bytes
func PixelBufferFromBytes(width, height int, pix []uint8) (*PixelBuffer, error) {

	buf := &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    pix,
	}

	if err := buf.Validate(); err != nil {
		return nil, err
	}

	buf.Pix = make([]uint8, len(pix))
	copy(buf.Pix, pix)

	return buf, nil
}

// PixelBufferFromImage draws any image.Image into a new PixelBuffer of the
// same size
func PixelBufferFromImage(img image.Image) *PixelBuffer {

	bounds := img.Bounds()
	buf := NewPixelBuffer(bounds.Dx(), bounds.Dy())

	draw.Copy(buf.RGBA(), image.Point{}, img, bounds, draw.Src, nil)

	return buf
}

// Validate checks the buffer has a positive size and that the pixel slice
// length matches it
func (b *PixelBuffer) Validate() error {

	if b == nil {
		return fmt.Errorf("nil pixel buffer: %w", ErrDimensionMismatch)
	}

	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid pixel buffer size %dx%d: %w",
			b.Width, b.Height, ErrDimensionMismatch)
	}

	if want := b.Width * b.Height * BytesPerPixel; len(b.Pix) != want {
		return fmt.Errorf("pixel buffer %dx%d has %d bytes, expected %d: %w",
			b.Width, b.Height, len(b.Pix), want, ErrDimensionMismatch)
	}

	return nil
}

// PixOffset returns the index of the first byte of the pixel at (x, y)
func (b *PixelBuffer) PixOffset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// Bounds returns the pixel rectangle covered by the buffer
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// RGBA returns an image.RGBA sharing the pixel memory of the buffer
func (b *PixelBuffer) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * BytesPerPixel,
		Rect:   b.Bounds(),
	}
}
