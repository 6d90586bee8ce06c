package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar reports assembly progress on the terminal. A quiet bar renders nothing.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a bar counting to max, or a spinner when max is -1.
func New(max int, desc string, quiet bool) *Bar {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	return &Bar{bar: progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))}
}

func (b *Bar) Set(n int) {
	_ = b.bar.Set(n)
}

func (b *Bar) Describe(desc string) {
	b.bar.Describe(desc)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
