package encoder

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-gibsreel/pkg/frame"
	"github.com/1F47E/go-gibsreel/pkg/logger"
)

const DefaultFFmpeg = "ffmpeg"

// muxer per output extension
var muxers = map[string]string{
	".mp4": "mp4",
	".mov": "mov",
	".avi": "avi",
	".mkv": "matroska",
}

// codecs each muxer cannot carry
var unsupported = map[string][]FourCC{
	"mp4": {FFV1},
}

// Muxer returns the ffmpeg output format for an artifact path.
func Muxer(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	m, ok := muxers[ext]
	if !ok {
		return "", fmt.Errorf("unsupported video extension %q", ext)
	}
	return m, nil
}

// CheckContainer reports whether the container chosen by the path extension
// can carry codec c.
func CheckContainer(path string, c FourCC) error {
	m, err := Muxer(path)
	if err != nil {
		return err
	}
	for _, cc := range unsupported[m] {
		if cc == c {
			return fmt.Errorf("%w: %s in %s", ErrContainer, c, filepath.Ext(path))
		}
	}
	return nil
}

// DefaultLockDir holds the artifact lock files.
func DefaultLockDir() string {
	return filepath.Join(os.TempDir(), "gibsreel-locks")
}

// FFmpeg encodes raw RGBA frames piped into an ffmpeg process.
type FFmpeg struct {
	bin     string
	lockDir string
	log     *logrus.Entry
}

type FFmpegOption func(*FFmpeg)

// WithLockDir places artifact lock files in dir instead of DefaultLockDir.
func WithLockDir(dir string) FFmpegOption {
	return func(e *FFmpeg) { e.lockDir = dir }
}

func NewFFmpeg(bin string, opts ...FFmpegOption) *FFmpeg {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultFFmpeg
	}
	e := &FFmpeg{
		bin:     bin,
		lockDir: DefaultLockDir(),
		log:     logger.Log.WithField("scope", "ffmpeg"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockPath maps an artifact to its lock file. Lock files are never removed:
// deleting a flock file lets a waiter and a newcomer lock different inodes.
func (e *FFmpeg) lockPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(e.lockDir, hex.EncodeToString(sum[:12])+".lock"), nil
}

// Available resolves the ffmpeg binary.
func (e *FFmpeg) Available() (string, error) {
	path, err := exec.LookPath(e.bin)
	if err != nil {
		return "", fmt.Errorf("binary %q not found: %w", e.bin, err)
	}
	return path, nil
}

// Open locks the artifact path, starts ffmpeg and returns a stream writing to
// a pending file. The artifact appears at p.Path only after a successful Close.
func (e *FFmpeg) Open(p Params) (Stream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	codec, _ := p.Codec.FFmpegCodec()
	muxer, err := Muxer(p.Path)
	if err != nil {
		return nil, err
	}
	if err := CheckContainer(p.Path, p.Codec); err != nil {
		return nil, err
	}
	bin, err := e.Available()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lockPath, err := e.lockPath(p.Path)
	if err != nil {
		return nil, fmt.Errorf("lock path: %w", err)
	}
	if err := os.MkdirAll(e.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("artifact %s is held by another encoder", p.Path)
	}

	out, err := newPending(p.Path)
	if err != nil {
		unlock(lock)
		return nil, fmt.Errorf("create pending output: %w", err)
	}

	args := buildArgs(p, codec, muxer, out.Name())
	e.log.Debugf("Running ffmpeg command: %s %s", bin, strings.Join(args, " "))
	cmd := exec.Command(bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = out.Discard()
		unlock(lock)
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	s := &ffmpegStream{
		params: p,
		cmd:    cmd,
		stdin:  stdin,
		out:    out,
		lock:   lock,
		log:    e.log.WithField("path", p.Path),
	}
	cmd.Stderr = &s.stderr
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = out.Discard()
		unlock(lock)
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return s, nil
}

func buildArgs(p Params, codec, muxer, out string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-r", strconv.Itoa(p.FPS),
		"-i", "pipe:0",
	}
	if !p.Color {
		args = append(args, "-vf", "format=gray")
	}
	args = append(args, "-c:v", codec, "-f", muxer, out)
	return args
}

type ffmpegStream struct {
	params   Params
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stderr   bytes.Buffer
	out      pending
	lock     *flock.Flock
	log      *logrus.Entry
	released bool
}

func (s *ffmpegStream) Write(f *frame.Frame) error {
	if s.released {
		return ErrReleased
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if !f.SameSize(s.params.Width, s.params.Height) {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, f.Width, f.Height, s.params.Width, s.params.Height)
	}
	// frames reach ffmpeg in order; a rejection of this frame may only show up
	// on a later Write or on Close
	if _, err := s.stdin.Write(f.Pix); err != nil {
		return fmt.Errorf("write frame to ffmpeg: %w", err)
	}
	return nil
}

func (s *ffmpegStream) Close() error {
	if s.released {
		return ErrReleased
	}
	s.released = true
	defer unlock(s.lock)

	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		_ = s.out.Discard()
		return fmt.Errorf("ffmpeg exited: %w%s", err, s.detail())
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		_ = s.out.Discard()
		return fmt.Errorf("close ffmpeg stdin: %w", closeErr)
	}
	if err := s.out.Commit(); err != nil {
		return fmt.Errorf("publish %s: %w", s.params.Path, err)
	}
	s.log.Debug("ffmpeg finished")
	return nil
}

func (s *ffmpegStream) Abort() error {
	if s.released {
		return ErrReleased
	}
	s.released = true
	defer unlock(s.lock)

	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// exit status of a killed process is expected
	_ = s.cmd.Wait()
	if err := s.out.Discard(); err != nil {
		return fmt.Errorf("discard pending output: %w", err)
	}
	s.log.Debug("ffmpeg aborted")
	return nil
}

func (s *ffmpegStream) detail() string {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	if len(msg) > 512 {
		msg = "..." + msg[len(msg)-512:]
	}
	return ": " + msg
}

func unlock(l *flock.Flock) {
	if err := l.Unlock(); err != nil {
		logger.Log.WithField("scope", "ffmpeg").Warnf("release lock %s: %v", l.Path(), err)
	}
}
