package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/gibs"
)

func TestDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Output.Dir)
	assert.Equal(t, ".mp4", cfg.Output.Extension)
	assert.Equal(t, NamingUUID, cfg.Output.Naming)
	assert.Equal(t, "MJPG", cfg.Encoder.FourCC)
	assert.Equal(t, 30, cfg.Encoder.FPS)
	assert.True(t, cfg.Encoder.Color)
	assert.Equal(t, 500, cfg.Frames.Width)
	assert.Equal(t, 500, cfg.Frames.Height)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers.Parallel)
	assert.Equal(t, "info", cfg.Logging.Level)

	svc, proj, tier, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, gibs.TileService, svc)
	assert.Equal(t, gibs.EPSG4326, proj)
	assert.Equal(t, gibs.Best, tier)

	cc, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, encoder.MJPG, cc)
}

func TestParse(t *testing.T) {
	data := []byte(`
[output]
dir = "/tmp/videos"
extension = "MKV"
naming = "sequence"
prefix = "goes"

[encoder]
fourcc = "ffv1"
fps = 12
color = false

[frames]
width = 1024
height = 768

[imagery]
service = "TWMS"
projection = 3413
tier = "nrt"

[workers]
parallel = 2

[logging]
level = "debug"
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean("/tmp/videos"), cfg.Output.Dir)
	assert.Equal(t, ".mkv", cfg.Output.Extension)
	assert.Equal(t, "FFV1", cfg.Encoder.FourCC)
	assert.False(t, cfg.Encoder.Color)
	assert.Equal(t, 1024, cfg.Frames.Width)
	assert.Equal(t, 2, cfg.Workers.Parallel)

	svc, proj, tier, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, gibs.TiledMapService, svc)
	assert.Equal(t, gibs.ArcticPolarStereographic, proj)
	assert.Equal(t, gibs.NearRealTime, tier)

	namer, err := cfg.Namer()
	require.NoError(t, err)
	name, err := namer.Name()
	require.NoError(t, err)
	assert.Equal(t, "goes-000001.mkv", name)

	opts, err := cfg.AssemblerOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 5)
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "unknown key", data: "[output]\ncolour = true\n"},
		{name: "unknown section", data: "[server]\nport = 1\n"},
		{name: "bad naming", data: "[output]\nnaming = \"random\"\n"},
		{name: "fixed without name", data: "[output]\nnaming = \"fixed\"\n"},
		{name: "bad extension", data: "[output]\nextension = \"gif\"\n"},
		{name: "bad fourcc", data: "[encoder]\nfourcc = \"XVID\"\n"},
		{name: "ffv1 in mp4", data: "[encoder]\nfourcc = \"FFV1\"\n"},
		{name: "zero fps", data: "[encoder]\nfps = 0\n"},
		{name: "negative width", data: "[frames]\nwidth = -1\n"},
		{name: "bad service", data: "[imagery]\nservice = \"wcs\"\n"},
		{name: "bad projection", data: "[imagery]\nprojection = 4269\n"},
		{name: "bad tier", data: "[imagery]\ntier = \"latest\"\n"},
		{name: "bad level", data: "[logging]\nlevel = \"loud\"\n"},
		{name: "wrong type", data: "[frames]\nwidth = \"wide\"\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestCodecContainer(t *testing.T) {
	_, err := Parse([]byte("[encoder]\nfourcc = \"ffv1\"\n"))
	assert.ErrorIs(t, err, encoder.ErrContainer)

	cfg, err := Parse([]byte("[output]\nextension = \"mkv\"\n[encoder]\nfourcc = \"ffv1\"\n"))
	require.NoError(t, err)
	cc, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, encoder.FFV1, cc)
}

func TestFixedNaming(t *testing.T) {
	cfg, err := Parse([]byte("[output]\nnaming = \"fixed\"\nname = \"clip.mp4\"\n"))
	require.NoError(t, err)
	namer, err := cfg.Namer()
	require.NoError(t, err)
	name, err := namer.Name()
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gibsreel.toml")
	require.NoError(t, os.WriteFile(path, []byte("[frames]\nwidth = 64\nheight = 32\n"), 0o644))

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 64, cfg.Frames.Width)
	assert.Equal(t, 32, cfg.Frames.Height)
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.toml")
	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 500, cfg.Frames.Width)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[frames\n"), 0o644))
	_, _, _, err := Load(path)
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte("[imagery]\nprojection = 3031\n"))
	require.NoError(t, err)

	data, err := cfg.Encode()
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/videos")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "videos"), got)

	got, err = ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ExpandPath("rel")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestAssemblerOptionsDriveAssembler(t *testing.T) {
	cfg, err := Parse([]byte("[output]\ndir = \"out\"\nnaming = \"fixed\"\nname = \"x.avi\"\n[encoder]\nfps = 5\n"))
	require.NoError(t, err)
	opts, err := cfg.AssemblerOptions()
	require.NoError(t, err)

	enc := encoder.NewMemory()
	a, err := assembler.New(cfg.Frames.Width, cfg.Frames.Height, enc, opts...)
	require.NoError(t, err)
	require.NoError(t, a.Open())
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "x.avi"), a.Path())
	assert.Equal(t, 5, enc.Streams()[0].Params().FPS)
	assert.ErrorIs(t, a.Abort(nil), assembler.ErrFrameWrite)
	assert.Equal(t, 0, enc.Live())
}
