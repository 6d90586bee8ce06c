package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/gibs"
)

// Output controls where artifacts go and how they are named.
type Output struct {
	Dir       string `toml:"dir"`
	Extension string `toml:"extension"`
	Naming    string `toml:"naming"` // uuid, fixed or sequence
	Name      string `toml:"name"`   // naming = "fixed"
	Prefix    string `toml:"prefix"` // naming = "sequence"
}

type Encoder struct {
	FFmpeg string `toml:"ffmpeg"`
	FourCC string `toml:"fourcc"`
	FPS    int    `toml:"fps"`
	Color  bool   `toml:"color"`
}

// Frames is the target size every frame must have.
type Frames struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Imagery holds the default url parameters.
type Imagery struct {
	Service    string `toml:"service"`
	Projection int    `toml:"projection"`
	Tier       string `toml:"tier"`
}

type Workers struct {
	Parallel int `toml:"parallel"`
}

type Logging struct {
	Level string `toml:"level"`
}

type Metrics struct {
	Textfile string `toml:"textfile"`
}

type Config struct {
	Output  Output  `toml:"output"`
	Encoder Encoder `toml:"encoder"`
	Frames  Frames  `toml:"frames"`
	Imagery Imagery `toml:"imagery"`
	Workers Workers `toml:"workers"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// Load reads the config at path on top of the defaults. An empty path tries
// ./gibsreel.toml then ~/.config/gibsreel/config.toml; a missing file is not
// an error. The resolved path and whether it existed are returned.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// Parse decodes TOML text on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Namer builds the naming strategy from [output].
func (c *Config) Namer() (assembler.Namer, error) {
	switch c.Output.Naming {
	case NamingUUID:
		return assembler.UUIDNamer(c.Output.Extension), nil
	case NamingFixed:
		return assembler.FixedNamer(c.Output.Name), nil
	case NamingSequence:
		return assembler.NewSequenceNamer(c.Output.Prefix, c.Output.Extension), nil
	}
	return nil, fmt.Errorf("output.naming: unknown strategy %q", c.Output.Naming)
}

// Codec parses encoder.fourcc.
func (c *Config) Codec() (encoder.FourCC, error) {
	cc, err := encoder.ParseFourCC(c.Encoder.FourCC)
	if err != nil {
		return encoder.FourCC{}, fmt.Errorf("encoder.fourcc: %w", err)
	}
	return cc, nil
}

// Endpoint parses [imagery].
func (c *Config) Endpoint() (gibs.Service, gibs.Projection, gibs.Imagery, error) {
	svc, err := gibs.ParseService(c.Imagery.Service)
	if err != nil {
		return 0, gibs.Projection{}, 0, fmt.Errorf("imagery.service: %w", err)
	}
	proj, err := gibs.NewProjection(c.Imagery.Projection)
	if err != nil {
		return 0, gibs.Projection{}, 0, fmt.Errorf("imagery.projection: %w", err)
	}
	tier, err := gibs.ParseImagery(c.Imagery.Tier)
	if err != nil {
		return 0, gibs.Projection{}, 0, fmt.Errorf("imagery.tier: %w", err)
	}
	return svc, proj, tier, nil
}

// AssemblerOptions turns the config into assembler options.
func (c *Config) AssemblerOptions() ([]assembler.Option, error) {
	namer, err := c.Namer()
	if err != nil {
		return nil, err
	}
	codec, err := c.Codec()
	if err != nil {
		return nil, err
	}
	return []assembler.Option{
		assembler.WithNamer(namer),
		assembler.WithOutputDir(c.Output.Dir),
		assembler.WithCodec(codec),
		assembler.WithFPS(c.Encoder.FPS),
		assembler.WithColor(c.Encoder.Color),
	}, nil
}

func resolvePath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	candidates := []string{"gibsreel.toml", "~/.config/gibsreel/config.toml"}
	var first string
	for _, c := range candidates {
		expanded, err := ExpandPath(c)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded, true, nil
		}
	}
	return first, false, nil
}

// ExpandPath resolves "~" and makes the path absolute.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
