//go:build windows

package encoder

import (
	"os"
	"path/filepath"
)

type pending interface {
	Name() string
	Commit() error
	Discard() error
}

// renameio has no windows support, fall back to a temp file and rename.
type tempPending struct {
	path string
	f    *os.File
}

func newPending(path string) (pending, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return &tempPending{path: path, f: f}, nil
}

func (p *tempPending) Name() string {
	return p.f.Name()
}

func (p *tempPending) Commit() error {
	if err := p.f.Sync(); err != nil {
		return err
	}
	if err := p.f.Close(); err != nil {
		return err
	}
	return os.Rename(p.f.Name(), p.path)
}

func (p *tempPending) Discard() error {
	_ = p.f.Close()
	return os.Remove(p.f.Name())
}
