// Package frame holds decoded images handed to the video assembler.
package frame

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"path/filepath"
	"strings"
)

// BytesPerPixel of the RGBA pixel buffer.
const BytesPerPixel = 4

// Format is the encoding the frame was decoded from.
type Format int

const (
	JPEG Format = iota + 1
	PNG
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	}
	return "unknown"
}

func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// FormatFromPath detects the format by file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG, true
	case ".png":
		return PNG, true
	}
	return 0, false
}

// Frame is a decoded image. Pix is row-major RGBA, 4 bytes per pixel.
type Frame struct {
	Format Format
	Width  int
	Height int
	Pix    []byte
}

// BufferSize is the Pix length of a width x height frame. It reports false for
// negative sizes and for sizes whose buffer would not fit in an int.
func BufferSize(width, height int) (int, bool) {
	if width < 0 || height < 0 {
		return 0, false
	}
	if width > 0 && height > math.MaxInt/BytesPerPixel/width {
		return 0, false
	}
	return width * height * BytesPerPixel, true
}

// New allocates a zeroed (transparent black) frame. A size with no valid
// buffer yields an empty 0x0 frame.
func New(format Format, width, height int) *Frame {
	n, ok := BufferSize(width, height)
	if !ok {
		width, height, n = 0, 0, 0
	}
	return &Frame{
		Format: format,
		Width:  width,
		Height: height,
		Pix:    make([]byte, n),
	}
}

// FromImage copies img into a new frame.
func FromImage(img image.Image, format Format) *Frame {
	b := img.Bounds()
	f := New(format, b.Dx(), b.Dy())
	// draw onto a view of the same buffer so any color model ends up RGBA
	dst := f.Image()
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return f
}

// Image returns an RGBA view sharing the frame's buffer.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// SameSize reports whether the frame is exactly width x height.
func (f *Frame) SameSize(width, height int) bool {
	return f.Width == width && f.Height == height
}

func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("frame is nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	want, ok := BufferSize(f.Width, f.Height)
	if !ok {
		return fmt.Errorf("frame size %dx%d is too large", f.Width, f.Height)
	}
	if len(f.Pix) != want {
		return fmt.Errorf("frame buffer is %d bytes, want %d for %dx%d", len(f.Pix), want, f.Width, f.Height)
	}
	return nil
}
