// Package assembler turns an ordered sequence of frames into one video file.
//
// An Assembler owns one encoder stream from Open until Finalize or the first
// failure and releases it exactly once on every path:
//
//	Created -> Open -> Writing(n) -> Finalized
//	    \        \         \
//	     +--------+---------+-----> Failed
//
// Finalized and Failed are terminal. An Assembler is not safe for concurrent
// use; distinct Assemblers share nothing and may run in parallel.
package assembler

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/frame"
	"github.com/1F47E/go-gibsreel/pkg/logger"
)

const DefaultFPS = 30

type State int

const (
	Created State = iota
	Open
	Writing
	Finalized
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Open:
		return "open"
	case Writing:
		return "writing"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Artifact is a finished video.
type Artifact struct {
	Name   string
	Path   string
	Width  int
	Height int
	Frames int
	Codec  encoder.FourCC
}

type options struct {
	namer   Namer
	dir     string
	codec   encoder.FourCC
	fps     int
	color   bool
	log     *logrus.Entry
	metrics *Metrics
	onFrame func(written int)
}

type Option func(*options)

// WithNamer sets the artifact naming strategy. Default is UUIDNamer(".mp4").
func WithNamer(n Namer) Option {
	return func(o *options) { o.namer = n }
}

// WithOutputDir places the artifact in dir.
func WithOutputDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithCodec sets the codec tag. Default is MJPG.
func WithCodec(c encoder.FourCC) Option {
	return func(o *options) { o.codec = c }
}

func WithFPS(fps int) Option {
	return func(o *options) { o.fps = fps }
}

// WithColor selects color (default) or grayscale output.
func WithColor(color bool) Option {
	return func(o *options) { o.color = color }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithOnFrame is called after every accepted frame with the running count.
func WithOnFrame(fn func(written int)) Option {
	return func(o *options) { o.onFrame = fn }
}

type Assembler struct {
	width   int
	height  int
	enc     encoder.Encoder
	opts    options
	log     *logrus.Entry
	state   State
	stream  encoder.Stream
	path    string
	written int
	err     error
}

// New returns an Assembler in the Created state. Every frame appended later
// must be exactly width x height.
func New(width, height int, enc encoder.Encoder, opts ...Option) (*Assembler, error) {
	if _, ok := frame.BufferSize(width, height); !ok || width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if enc == nil {
		return nil, errors.New("encoder is required")
	}
	o := options{
		codec: encoder.MJPG,
		fps:   DefaultFPS,
		color: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.namer == nil {
		o.namer = UUIDNamer(DefaultExtension)
	}
	if o.log == nil {
		o.log = logger.Log.WithField("scope", "assembler")
	}
	return &Assembler{
		width:  width,
		height: height,
		enc:    enc,
		opts:   o,
		log:    o.log,
		state:  Created,
	}, nil
}

func (a *Assembler) State() State {
	return a.state
}

// Written is the number of frames the encoder accepted.
func (a *Assembler) Written() int {
	return a.written
}

// Err is the failure that moved the assembler to Failed.
func (a *Assembler) Err() error {
	return a.err
}

// Path of the artifact, known once Open has named it.
func (a *Assembler) Path() string {
	return a.path
}

// Open names the artifact and acquires the encoder stream.
func (a *Assembler) Open() error {
	if a.state != Created {
		return a.misuse(EncoderInit)
	}

	name, err := a.opts.namer.Name()
	if err != nil {
		return a.fail(&Error{Kind: EncoderInit, Frame: -1, Err: err})
	}
	a.path = artifactPath(a.opts.dir, name)
	a.log = a.log.WithField("path", a.path)

	s, err := a.enc.Open(encoder.Params{
		Path:   a.path,
		Codec:  a.opts.codec,
		Width:  a.width,
		Height: a.height,
		FPS:    a.opts.fps,
		Color:  a.opts.color,
	})
	if err != nil {
		return a.fail(&Error{Kind: EncoderInit, Path: a.path, Frame: -1, Err: err})
	}
	a.stream = s
	a.state = Open
	a.opts.metrics.acquired()
	a.log.Debugf("Encoder opened %dx%d %s", a.width, a.height, a.opts.codec)
	return nil
}

// Append hands one frame to the encoder and returns once it is accepted.
// The frame is not retained.
func (a *Assembler) Append(f *frame.Frame) error {
	if a.state != Open && a.state != Writing {
		return a.misuse(FrameWrite)
	}
	idx := a.written

	if err := f.Validate(); err != nil {
		return a.fail(&Error{Kind: FrameWrite, Path: a.path, Frame: idx, Err: err})
	}
	if !f.SameSize(a.width, a.height) {
		err := fmt.Errorf("%w: got %dx%d, want %dx%d", ErrDimensionMismatch, f.Width, f.Height, a.width, a.height)
		return a.fail(&Error{Kind: FrameWrite, Path: a.path, Frame: idx, Err: err})
	}
	if err := a.stream.Write(f); err != nil {
		return a.fail(&Error{Kind: FrameWrite, Path: a.path, Frame: idx, Err: err})
	}

	a.written++
	a.state = Writing
	a.opts.metrics.frameWritten()
	a.log.Debugf("Frame %d written", idx)
	if a.opts.onFrame != nil {
		a.opts.onFrame(a.written)
	}
	return nil
}

// Finalize closes the encoder and returns the artifact.
func (a *Assembler) Finalize() (Artifact, error) {
	if a.state != Open && a.state != Writing {
		return Artifact{}, a.misuse(EncoderClose)
	}
	if a.written == 0 {
		return Artifact{}, a.fail(&Error{Kind: EncoderClose, Path: a.path, Frame: -1, Err: ErrNoFrames})
	}

	s := a.stream
	a.stream = nil
	a.opts.metrics.released()
	if err := s.Close(); err != nil {
		// Close released the stream even though it failed
		return Artifact{}, a.fail(&Error{Kind: EncoderClose, Path: a.path, Frame: -1, Err: err})
	}

	a.state = Finalized
	a.opts.metrics.outcome(0)
	a.log.WithField("frames", a.written).Info("Video assembled")
	return Artifact{
		Name:   filepath.Base(a.path),
		Path:   a.path,
		Width:  a.width,
		Height: a.height,
		Frames: a.written,
		Codec:  a.opts.codec,
	}, nil
}

// Abort gives up on the assembly when the caller cannot supply the next
// frame. The stream is released without publishing anything and the
// returned FrameWrite error wraps cause. Aborting a finished assembler is a
// no-op that returns the state error.
func (a *Assembler) Abort(cause error) error {
	switch a.state {
	case Finalized, Failed:
		return a.misuse(FrameWrite)
	}
	if cause == nil {
		cause = errors.New("aborted")
	}
	return a.fail(&Error{Kind: FrameWrite, Path: a.path, Frame: a.written, Err: cause})
}

// fail releases the stream if still held and moves to Failed.
func (a *Assembler) fail(e *Error) error {
	if a.stream != nil {
		s := a.stream
		a.stream = nil
		a.opts.metrics.released()
		if err := encoder.Release(s); err != nil {
			e.Err = errors.Join(e.Err, fmt.Errorf("release encoder: %w", err))
		}
	}
	a.state = Failed
	a.err = e
	a.opts.metrics.outcome(e.Kind)
	a.log.WithField("written", a.written).Warn(e.Error())
	return e
}

// misuse reports a call made in the wrong state. The state is left as is.
func (a *Assembler) misuse(k Kind) error {
	idx := -1
	if k == FrameWrite {
		idx = a.written
	}
	return &Error{Kind: k, Path: a.path, Frame: idx, Err: fmt.Errorf("%w: %s", ErrInvalidState, a.state)}
}

// Assemble runs the whole lifecycle over frames.
func Assemble(width, height int, enc encoder.Encoder, frames []*frame.Frame, opts ...Option) (Artifact, error) {
	a, err := New(width, height, enc, opts...)
	if err != nil {
		return Artifact{}, err
	}
	if err := a.Open(); err != nil {
		return Artifact{}, err
	}
	for _, f := range frames {
		if err := a.Append(f); err != nil {
			return Artifact{}, err
		}
	}
	return a.Finalize()
}
