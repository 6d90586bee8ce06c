// Package encoder defines the frame encoder capability the assembler drives
// and ships two implementations: an ffmpeg process and an in-memory fake.
package encoder

import (
	"errors"
	"fmt"

	"github.com/1F47E/go-gibsreel/pkg/frame"
)

var (
	ErrReleased     = errors.New("encoder stream already released")
	ErrFrameSize    = errors.New("frame size does not match stream")
	ErrUnknownCodec = errors.New("unknown codec tag")
	ErrContainer    = errors.New("codec not supported by container")
)

// Params of an encoder stream.
type Params struct {
	Path   string
	Codec  FourCC
	Width  int
	Height int
	FPS    int
	Color  bool
}

func (p Params) Validate() error {
	if p.Path == "" {
		return errors.New("output path is required")
	}
	if _, ok := frame.BufferSize(p.Width, p.Height); !ok || p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("invalid size %dx%d", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", p.FPS)
	}
	if _, err := p.Codec.FFmpegCodec(); err != nil {
		return err
	}
	return nil
}

// Encoder acquires encoder streams.
type Encoder interface {
	Open(p Params) (Stream, error)
}

// Stream is one open encoder resource.
//
// Write blocks until the frame is fully accepted. Close flushes and finalizes
// the output and releases the resource whatever it returns.
type Stream interface {
	Write(f *frame.Frame) error
	Close() error
}

// Aborter is implemented by streams that can release the resource without
// publishing any output.
type Aborter interface {
	Abort() error
}

// Release ends a stream that must not produce output: Abort when the stream
// supports it, Close otherwise.
func Release(s Stream) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort()
	}
	return s.Close()
}
