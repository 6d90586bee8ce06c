package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-gibsreel/pkg/encoder"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	if c.Output.Dir, err = ExpandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.Extension = strings.ToLower(strings.TrimSpace(c.Output.Extension))
	if c.Output.Extension == "" {
		c.Output.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Output.Extension, ".") {
		c.Output.Extension = "." + c.Output.Extension
	}
	c.Output.Naming = strings.ToLower(strings.TrimSpace(c.Output.Naming))
	if c.Output.Naming == "" {
		c.Output.Naming = NamingUUID
	}
	c.Output.Name = strings.TrimSpace(c.Output.Name)
	c.Output.Prefix = strings.TrimSpace(c.Output.Prefix)

	c.Encoder.FFmpeg = strings.TrimSpace(c.Encoder.FFmpeg)
	if c.Encoder.FFmpeg == "" {
		c.Encoder.FFmpeg = defaultFFmpeg
	}
	c.Encoder.FourCC = strings.ToUpper(strings.TrimSpace(c.Encoder.FourCC))
	if c.Encoder.FourCC == "" {
		c.Encoder.FourCC = defaultFourCC
	}

	c.Imagery.Service = strings.ToLower(strings.TrimSpace(c.Imagery.Service))
	c.Imagery.Tier = strings.ToLower(strings.TrimSpace(c.Imagery.Tier))

	if c.Workers.Parallel <= 0 {
		c.Workers.Parallel = runtime.NumCPU()
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Metrics.Textfile != "" {
		if c.Metrics.Textfile, err = ExpandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Output.Naming {
	case NamingUUID, NamingSequence:
	case NamingFixed:
		if c.Output.Name == "" {
			return errors.New("output.name is required when output.naming = \"fixed\"")
		}
	default:
		return fmt.Errorf("output.naming must be uuid, fixed or sequence, got %q", c.Output.Naming)
	}
	if _, err := encoder.Muxer("artifact" + c.Output.Extension); err != nil {
		return fmt.Errorf("output.extension: %w", err)
	}
	codec, err := c.Codec()
	if err != nil {
		return err
	}
	if err := encoder.CheckContainer("artifact"+c.Output.Extension, codec); err != nil {
		return fmt.Errorf("encoder.fourcc: %w", err)
	}
	if c.Encoder.FPS <= 0 {
		return errors.New("encoder.fps must be positive")
	}
	if c.Frames.Width <= 0 || c.Frames.Height <= 0 {
		return fmt.Errorf("frames size must be positive, got %dx%d", c.Frames.Width, c.Frames.Height)
	}
	if _, _, _, err := c.Endpoint(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
