// All frame file related functions
package storage

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/1F47E/go-gibsreel/pkg/frame"
)

var ErrNoFrames = errors.New("no frame files found")

// ScanFrames lists the png/jpeg files of dir in name order.
func ScanFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := frame.FormatFromPath(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	sort.Strings(files)
	return files, nil
}

// FrameRead decodes one png or jpeg file.
func FrameRead(path string) (*frame.Frame, error) {
	format, ok := frame.FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported frame file %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch format {
	case frame.JPEG:
		img, err = jpeg.Decode(file)
	case frame.PNG:
		img, err = png.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return frame.FromImage(img, format), nil
}

// SaveFrame writes f as png, used to produce fixtures and previews.
func SaveFrame(path string, f *frame.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(file, f.Image()); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}
