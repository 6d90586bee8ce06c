package encoder

import (
	"fmt"
	"sync"

	"github.com/1F47E/go-gibsreel/pkg/frame"
)

// Recording is what a memory stream produced.
type Recording struct {
	Params    Params
	Frames    int
	Committed bool
}

// Memory is an in-memory encoder. It keeps frame counts instead of video
// data and can be told to fail at open, at the Nth write or at close.
// Safe for use by several assemblers at once.
type Memory struct {
	// FailOpen is returned by Open when set.
	FailOpen error
	// FailWriteAt makes the Nth write (1-based) of every stream fail.
	FailWriteAt int
	// FailClose is returned by Close when set. The stream is still released.
	FailClose error

	mu         sync.Mutex
	opens      int
	streams    []*MemoryStream
	recordings map[string]Recording
}

func NewMemory() *Memory {
	return &Memory{recordings: map[string]Recording{}}
}

func (m *Memory) Open(p Params) (Stream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOpen != nil {
		return nil, m.FailOpen
	}
	for _, s := range m.streams {
		if s.params.Path == p.Path && s.releases == 0 {
			return nil, fmt.Errorf("artifact %s is held by another encoder", p.Path)
		}
	}
	m.opens++
	s := &MemoryStream{mem: m, params: p}
	m.streams = append(m.streams, s)
	return s, nil
}

// Opens is the number of successful Open calls.
func (m *Memory) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Live is the number of streams not yet released.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.streams {
		if s.releases == 0 {
			n++
		}
	}
	return n
}

// Streams returns every stream opened so far.
func (m *Memory) Streams() []*MemoryStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MemoryStream, len(m.streams))
	copy(out, m.streams)
	return out
}

// Recording returns the output published at path, if any.
func (m *Memory) Recording(path string) (Recording, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recordings[path]
	return r, ok
}

// MemoryStream is a stream of the Memory encoder.
type MemoryStream struct {
	mem      *Memory
	params   Params
	frames   int
	writes   int
	releases int
	aborted  bool
}

func (s *MemoryStream) Write(f *frame.Frame) error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	if s.releases > 0 {
		return ErrReleased
	}
	s.writes++
	if s.mem.FailWriteAt > 0 && s.writes == s.mem.FailWriteAt {
		return fmt.Errorf("memory encoder: injected failure at write %d", s.writes)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if !f.SameSize(s.params.Width, s.params.Height) {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, f.Width, f.Height, s.params.Width, s.params.Height)
	}
	s.frames++
	return nil
}

// Close counts as a release even when it fails or when the stream was
// already released, so double releases stay visible.
func (s *MemoryStream) Close() error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	s.releases++
	if s.releases > 1 {
		return ErrReleased
	}
	if s.mem.FailClose != nil {
		return s.mem.FailClose
	}
	if s.mem.recordings == nil {
		s.mem.recordings = map[string]Recording{}
	}
	s.mem.recordings[s.params.Path] = Recording{Params: s.params, Frames: s.frames, Committed: true}
	return nil
}

func (s *MemoryStream) Abort() error {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	s.releases++
	if s.releases > 1 {
		return ErrReleased
	}
	s.aborted = true
	return nil
}

func (s *MemoryStream) Params() Params {
	return s.params
}

// Frames accepted by the stream.
func (s *MemoryStream) Frames() int {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	return s.frames
}

// Releases counts Close and Abort calls.
func (s *MemoryStream) Releases() int {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	return s.releases
}

func (s *MemoryStream) Aborted() bool {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	return s.aborted
}
