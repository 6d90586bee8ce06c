package assembler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const DefaultExtension = ".mp4"

// Namer picks the artifact file name when an assembler opens.
type Namer interface {
	Name() (string, error)
}

// NamerFunc adapts a function to Namer.
type NamerFunc func() (string, error)

func (f NamerFunc) Name() (string, error) {
	return f()
}

// UUIDNamer names artifacts with a random v4 uuid, e.g. "<uuid>.mp4".
func UUIDNamer(ext string) Namer {
	ext = normalizeExt(ext)
	return NamerFunc(func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("generate artifact id: %w", err)
		}
		return id.String() + ext, nil
	})
}

// FixedNamer always returns name.
func FixedNamer(name string) Namer {
	return NamerFunc(func() (string, error) {
		if strings.TrimSpace(name) == "" {
			return "", errors.New("artifact name is empty")
		}
		return name, nil
	})
}

// SequenceNamer returns prefix-000001.ext, prefix-000002.ext, ...
type SequenceNamer struct {
	prefix string
	ext    string
	n      atomic.Int64
}

func NewSequenceNamer(prefix, ext string) *SequenceNamer {
	return &SequenceNamer{prefix: prefix, ext: normalizeExt(ext)}
}

func (s *SequenceNamer) Name() (string, error) {
	n := s.n.Add(1)
	if s.prefix == "" {
		return fmt.Sprintf("%06d%s", n, s.ext), nil
	}
	return fmt.Sprintf("%s-%06d%s", s.prefix, n, s.ext), nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

func artifactPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
