package core

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/config"
	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/logger"
)

// Core wires the config, the encoder and the assembler together for the cli.
type Core struct {
	ctx     context.Context
	cfg     *config.Config
	enc     encoder.Encoder
	metrics *assembler.Metrics
	quiet   bool
	opts    []assembler.Option
	log     *logrus.Entry
}

type Option func(*Core)

// WithMetrics records assembler metrics.
func WithMetrics(m *assembler.Metrics) Option {
	return func(c *Core) { c.metrics = m }
}

// WithQuiet disables the progress bar.
func WithQuiet(quiet bool) Option {
	return func(c *Core) { c.quiet = quiet }
}

// NewCore builds the assembler options from cfg once, so a sequence namer
// keeps counting across assemblies.
func NewCore(ctx context.Context, cfg *config.Config, enc encoder.Encoder, opts ...Option) (*Core, error) {
	aopts, err := cfg.AssemblerOptions()
	if err != nil {
		return nil, err
	}
	c := &Core{
		ctx:  ctx,
		cfg:  cfg,
		enc:  enc,
		opts: aopts,
		log:  logger.Log.WithField("scope", "core"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Core) Config() *config.Config {
	return c.cfg
}
