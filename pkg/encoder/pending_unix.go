//go:build !windows

package encoder

import "github.com/google/renameio/v2"

// pending is the output file ffmpeg writes until the stream is closed.
type pending interface {
	Name() string
	Commit() error
	Discard() error
}

type renamePending struct {
	f *renameio.PendingFile
}

func newPending(path string) (pending, error) {
	f, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return nil, err
	}
	return &renamePending{f}, nil
}

func (p *renamePending) Name() string {
	return p.f.Name()
}

// Commit fsyncs and renames the pending file onto the artifact path.
func (p *renamePending) Commit() error {
	return p.f.CloseAtomicallyReplace()
}

func (p *renamePending) Discard() error {
	return p.f.Cleanup()
}
