package assembler

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/frame"
)

func frames(n, w, h int) []*frame.Frame {
	out := make([]*frame.Frame, n)
	for i := range out {
		out[i] = frame.New(frame.PNG, w, h)
	}
	return out
}

func TestAssemble(t *testing.T) {
	enc := encoder.NewMemory()
	var seen []int

	art, err := Assemble(500, 500, enc, frames(10, 500, 500),
		WithOutputDir("videos"),
		WithOnFrame(func(n int) { seen = append(seen, n) }),
	)
	require.NoError(t, err)

	assert.Equal(t, 10, art.Frames)
	assert.Equal(t, 500, art.Width)
	assert.Equal(t, 500, art.Height)
	assert.Equal(t, encoder.MJPG, art.Codec)
	assert.Equal(t, filepath.Join("videos", art.Name), art.Path)
	assert.Equal(t, ".mp4", filepath.Ext(art.Name))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)

	rec, ok := enc.Recording(art.Path)
	require.True(t, ok)
	assert.Equal(t, 10, rec.Frames)
	assert.True(t, rec.Params.Color)
	assert.Equal(t, DefaultFPS, rec.Params.FPS)
	assert.Equal(t, 0, enc.Live())
	assert.Equal(t, 1, enc.Streams()[0].Releases())
}

func TestLifecycle(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(8, 6, enc)
	require.NoError(t, err)
	assert.Equal(t, Created, a.State())
	assert.Empty(t, a.Path())

	require.NoError(t, a.Open())
	assert.Equal(t, Open, a.State())
	assert.NotEmpty(t, a.Path())

	require.NoError(t, a.Append(frame.New(frame.JPEG, 8, 6)))
	assert.Equal(t, Writing, a.State())
	require.NoError(t, a.Append(frame.New(frame.JPEG, 8, 6)))
	assert.Equal(t, 2, a.Written())

	art, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, Finalized, a.State())
	assert.Equal(t, 2, art.Frames)
	assert.NoError(t, a.Err())
}

func TestDimensionMismatch(t *testing.T) {
	testCases := []struct {
		name string
		w, h int
	}{
		{name: "narrower", w: 499, h: 500},
		{name: "taller", w: 500, h: 501},
		{name: "swapped", w: 400, h: 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc := encoder.NewMemory()
			a, err := New(500, 400, enc)
			require.NoError(t, err)
			require.NoError(t, a.Open())
			require.NoError(t, a.Append(frame.New(frame.PNG, 500, 400)))

			err = a.Append(frame.New(frame.PNG, tc.w, tc.h))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFrameWrite)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
			assert.Equal(t, FrameWrite, KindOf(err))
			assert.Equal(t, Failed, a.State())

			var aerr *Error
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, 1, aerr.Frame)

			// the stream never saw the bad frame and produced no output
			ms := enc.Streams()[0]
			assert.Equal(t, 1, ms.Frames())
			assert.True(t, ms.Aborted())
			assert.Equal(t, 1, ms.Releases())
			_, ok := enc.Recording(a.Path())
			assert.False(t, ok)

			_, err = a.Finalize()
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, Failed, a.State())
		})
	}
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("device busy")
	enc := &encoder.Memory{FailOpen: boom}

	art, err := Assemble(10, 10, enc, frames(3, 10, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoderInit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, EncoderInit, KindOf(err))
	assert.Equal(t, Artifact{}, art)
	assert.Equal(t, 0, enc.Opens())
	assert.Empty(t, enc.Streams())
}

func TestNamerFailure(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(10, 10, enc, WithNamer(FixedNamer("")))
	require.NoError(t, err)

	err = a.Open()
	assert.ErrorIs(t, err, ErrEncoderInit)
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, 0, enc.Opens())
}

func TestReleaseExactlyOnce(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name    string
		enc     *encoder.Memory
		frames  []*frame.Frame
		kind    Kind
		aborted bool
	}{
		{
			name:    "write failure",
			enc:     &encoder.Memory{FailWriteAt: 3},
			frames:  frames(5, 10, 10),
			kind:    FrameWrite,
			aborted: true,
		},
		{
			name:    "size mismatch",
			enc:     encoder.NewMemory(),
			frames:  append(frames(2, 10, 10), frame.New(frame.PNG, 9, 10)),
			kind:    FrameWrite,
			aborted: true,
		},
		{
			name:    "invalid frame",
			enc:     encoder.NewMemory(),
			frames:  []*frame.Frame{frame.New(frame.PNG, 10, 10), nil},
			kind:    FrameWrite,
			aborted: true,
		},
		{
			name:   "close failure",
			enc:    &encoder.Memory{FailClose: boom},
			frames: frames(4, 10, 10),
			kind:   EncoderClose,
		},
		{
			name:    "no frames",
			enc:     encoder.NewMemory(),
			frames:  nil,
			kind:    EncoderClose,
			aborted: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble(10, 10, tc.enc, tc.frames)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))

			streams := tc.enc.Streams()
			require.Len(t, streams, 1)
			assert.Equal(t, 1, streams[0].Releases())
			assert.Equal(t, tc.aborted, streams[0].Aborted())
			assert.Equal(t, 0, tc.enc.Live())
		})
	}
}

func TestNoFrames(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(10, 10, enc)
	require.NoError(t, err)
	require.NoError(t, a.Open())

	_, err = a.Finalize()
	assert.ErrorIs(t, err, ErrEncoderClose)
	assert.ErrorIs(t, err, ErrNoFrames)
	assert.Equal(t, Failed, a.State())
	_, ok := enc.Recording(a.Path())
	assert.False(t, ok)
}

func TestMisuse(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(10, 10, enc)
	require.NoError(t, err)

	err = a.Append(frame.New(frame.PNG, 10, 10))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, err, ErrFrameWrite)
	assert.Equal(t, Created, a.State())

	_, err = a.Finalize()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, EncoderClose, KindOf(err))
	assert.Equal(t, Created, a.State())

	require.NoError(t, a.Open())
	err = a.Open()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, EncoderInit, KindOf(err))
	assert.Equal(t, Open, a.State())
	assert.Equal(t, 1, enc.Opens())

	require.NoError(t, a.Append(frame.New(frame.PNG, 10, 10)))
	_, err = a.Finalize()
	require.NoError(t, err)

	err = a.Append(frame.New(frame.PNG, 10, 10))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, Finalized, a.State())
	assert.Equal(t, 1, enc.Streams()[0].Releases())
}

func TestAbort(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(10, 10, enc)
	require.NoError(t, err)
	require.NoError(t, a.Open())
	require.NoError(t, a.Append(frame.New(frame.PNG, 10, 10)))

	cause := errors.New("decode frame_000002.png")
	err = a.Abort(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrFrameWrite)
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, err, a.Err())
	assert.True(t, enc.Streams()[0].Aborted())

	err = a.Abort(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, enc.Streams()[0].Releases())
}

func TestAbortBeforeOpen(t *testing.T) {
	enc := encoder.NewMemory()
	a, err := New(10, 10, enc)
	require.NoError(t, err)

	err = a.Abort(nil)
	assert.ErrorIs(t, err, ErrFrameWrite)
	assert.Equal(t, "frame write failed: frame 0: aborted", err.Error())
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, 0, enc.Opens())
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "path and frame",
			err:  &Error{Kind: FrameWrite, Path: "out/a.mp4", Frame: 3, Err: cause},
			want: "frame write failed: out/a.mp4 frame 3: boom",
		},
		{
			name: "frame only",
			err:  &Error{Kind: FrameWrite, Frame: 0, Err: cause},
			want: "frame write failed: frame 0: boom",
		},
		{
			name: "path only",
			err:  &Error{Kind: EncoderClose, Path: "out/a.mp4", Frame: -1, Err: cause},
			want: "encoder close failed: out/a.mp4: boom",
		},
		{
			name: "neither",
			err:  &Error{Kind: EncoderInit, Frame: -1, Err: cause},
			want: "encoder init failed: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
			assert.NotContains(t, tc.err.Error(), "  ")
			assert.ErrorIs(t, tc.err, cause)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(0, 10, encoder.NewMemory())
	assert.Error(t, err)
	_, err = New(10, -1, encoder.NewMemory())
	assert.Error(t, err)
	_, err = New(10, 10, nil)
	assert.Error(t, err)
	_, err = New(math.MaxInt/2, 3, encoder.NewMemory())
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	enc := encoder.NewMemory()
	art, err := Assemble(4, 4, enc, frames(2, 4, 4),
		WithNamer(FixedNamer("clip.avi")),
		WithCodec(encoder.FFV1),
		WithFPS(12),
		WithColor(false),
	)
	require.NoError(t, err)
	assert.Equal(t, "clip.avi", art.Path)
	assert.Equal(t, encoder.FFV1, art.Codec)

	p := enc.Streams()[0].Params()
	assert.Equal(t, 12, p.FPS)
	assert.False(t, p.Color)
	assert.Equal(t, encoder.FFV1, p.Codec)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_, err := Assemble(4, 4, encoder.NewMemory(), frames(3, 4, 4), WithMetrics(m))
	require.NoError(t, err)
	_, err = Assemble(4, 4, &encoder.Memory{FailWriteAt: 2}, frames(3, 4, 4), WithMetrics(m))
	require.Error(t, err)
	_, err = Assemble(4, 4, &encoder.Memory{FailOpen: errors.New("x")}, frames(3, 4, 4), WithMetrics(m))
	require.Error(t, err)

	assert.Equal(t, float64(4), testutil.ToFloat64(m.frames))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.assemblies.WithLabelValues("finalized")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.assemblies.WithLabelValues("frame_write")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.assemblies.WithLabelValues("encoder_init")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.open))
}

func TestParallelAssemblers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	enc := encoder.NewMemory()
	namer := NewSequenceNamer("par", ".mp4")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	arts := make([]Artifact, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			arts[i], errs[i] = Assemble(16, 16, enc, frames(i+1, 16, 16), WithNamer(namer))
		}(i)
	}
	wg.Wait()

	paths := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], fmt.Sprintf("assembler %d", i))
		assert.Equal(t, i+1, arts[i].Frames)
		paths[arts[i].Path] = true
	}
	assert.Len(t, paths, n)
	assert.Equal(t, 0, enc.Live())
	assert.Equal(t, n, enc.Opens())
}
