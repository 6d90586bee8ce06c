package assembler

import (
	"errors"
	"fmt"
)

// Kind classifies an assembly failure.
type Kind int

const (
	// EncoderInit: the encoder resource could not be acquired.
	EncoderInit Kind = iota + 1
	// FrameWrite: a frame was rejected, by size or by the encoder.
	FrameWrite
	// EncoderClose: flushing or finalizing the output failed.
	EncoderClose
)

func (k Kind) String() string {
	switch k {
	case EncoderInit:
		return "encoder_init"
	case FrameWrite:
		return "frame_write"
	case EncoderClose:
		return "encoder_close"
	}
	return "unknown"
}

var (
	ErrEncoderInit  = errors.New("encoder init failed")
	ErrFrameWrite   = errors.New("frame write failed")
	ErrEncoderClose = errors.New("encoder close failed")

	ErrDimensionMismatch = errors.New("frame dimensions do not match the assembler")
	ErrNoFrames          = errors.New("no frames written")
	ErrInvalidState      = errors.New("invalid assembler state")
)

// Error is returned by every failing Assembler call. errors.Is matches it
// against the sentinel of its Kind and against the wrapped cause.
type Error struct {
	Kind Kind
	Path string
	// Frame is the 0-based index of the frame being appended, -1 otherwise.
	Frame int
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Frame >= 0 && e.Path != "":
		return fmt.Sprintf("%s: %s frame %d: %v", e.sentinel(), e.Path, e.Frame, e.Err)
	case e.Frame >= 0:
		return fmt.Sprintf("%s: frame %d: %v", e.sentinel(), e.Frame, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.sentinel(), e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case EncoderInit:
		return ErrEncoderInit
	case FrameWrite:
		return ErrFrameWrite
	case EncoderClose:
		return ErrEncoderClose
	}
	return ErrInvalidState
}

// KindOf returns the kind of an assembly error, 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
