package core

import (
	"fmt"
	"path/filepath"

	"github.com/1F47E/go-gibsreel/internal/storage"
	"github.com/1F47E/go-gibsreel/pkg/frame"
)

// Sample writes n test frames of the configured size into dir: a gradient
// with a bar sweeping left to right. Returns the written paths.
func (c *Core) Sample(dir string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", n)
	}
	w, h := c.cfg.Frames.Width, c.cfg.Frames.Height
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		f := sampleFrame(w, h, i, n)
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", i+1))
		if err := storage.SaveFrame(path, f); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	c.log.Debugf("Wrote %d sample frames to %s", n, dir)
	return paths, nil
}

func sampleFrame(w, h, i, n int) *frame.Frame {
	f := frame.New(frame.PNG, w, h)
	barX := i * w / n
	barW := w / 20
	if barW == 0 {
		barW = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * frame.BytesPerPixel
			f.Pix[o] = uint8(x * 255 / w)
			f.Pix[o+1] = uint8(y * 255 / h)
			f.Pix[o+2] = 128
			f.Pix[o+3] = 255
			if x >= barX && x < barX+barW {
				f.Pix[o], f.Pix[o+1], f.Pix[o+2] = 255, 255, 255
			}
		}
	}
	return f
}
