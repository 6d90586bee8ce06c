package encoder

import (
	"fmt"
	"strings"
)

// FourCC is a four character codec tag, e.g. MJPG.
type FourCC [4]byte

var (
	MJPG = NewFourCC('M', 'J', 'P', 'G')
	MP4V = NewFourCC('M', 'P', '4', 'V')
	AVC1 = NewFourCC('A', 'V', 'C', '1')
	FFV1 = NewFourCC('F', 'F', 'V', '1')
)

// ffmpeg encoder per tag
var codecs = map[FourCC]string{
	MJPG: "mjpeg",
	MP4V: "mpeg4",
	AVC1: "libx264",
	FFV1: "ffv1",
}

func NewFourCC(a, b, c, d byte) FourCC {
	return FourCC{a, b, c, d}
}

// ParseFourCC accepts exactly four characters, case-insensitive.
func ParseFourCC(s string) (FourCC, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return FourCC{}, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
	cc := NewFourCC(s[0], s[1], s[2], s[3])
	if _, ok := codecs[cc]; !ok {
		return FourCC{}, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
	return cc, nil
}

func (c FourCC) String() string {
	return string(c[:])
}

// FFmpegCodec returns the ffmpeg encoder name for the tag.
func (c FourCC) FFmpegCodec() (string, error) {
	name, ok := codecs[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, c.String())
	}
	return name, nil
}
