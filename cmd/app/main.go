package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/config"
	"github.com/1F47E/go-gibsreel/pkg/core"
	"github.com/1F47E/go-gibsreel/pkg/encoder"
	"github.com/1F47E/go-gibsreel/pkg/frame"
	"github.com/1F47E/go-gibsreel/pkg/gibs"
	"github.com/1F47E/go-gibsreel/pkg/logger"
)

var app = cli.NewApp()
var log = logger.Log

func init() {
	app.Name = "gibsreel"
	app.Usage = "GIBS request urls and frames to video"
	app.UsageText = "gibsreel [--config file] command [arguments]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "config file (default ./gibsreel.toml or ~/.config/gibsreel/config.toml)"},
	}
	app.Commands = []cli.Command{
		{
			Name:    "url",
			Aliases: []string{"u"},
			Usage:   "Build one request url",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "service, s", Usage: "wmts, wms or twms"},
				cli.StringFlag{Name: "projection, p", Usage: "4326, 3857, 3413 or 3031"},
				cli.StringFlag{Name: "tier, t", Usage: "all, best, nrt or std"},
			},
			Action: urlAction,
		},
		{
			Name:   "urls",
			Usage:  "List every service, projection and tier url",
			Action: urlsAction,
		},
		{
			Name:    "products",
			Aliases: []string{"p"},
			Usage:   "List known imagery products",
			Action:  productsAction,
		},
		{
			Name:      "assemble",
			Aliases:   []string{"a"},
			Usage:     "Assemble a directory of png/jpeg frames into a video",
			ArgsUsage: "dir",
			Flags:     assembleFlags(),
			Action:    assembleAction,
		},
		{
			Name:      "batch",
			Aliases:   []string{"b"},
			Usage:     "Assemble several frame directories in parallel, one video each",
			ArgsUsage: "dir [dir...]",
			Flags:     assembleFlags(),
			Action:    batchAction,
		},
		{
			Name:      "sample",
			Usage:     "Write test frames of the configured size",
			ArgsUsage: "dir",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "count, n", Value: 10, Usage: "number of frames"},
				cli.IntFlag{Name: "width", Usage: "frame width"},
				cli.IntFlag{Name: "height", Usage: "frame height"},
			},
			Action: sampleAction,
		},
	}
}

func assembleFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{Name: "width", Usage: "target frame width"},
		cli.IntFlag{Name: "height", Usage: "target frame height"},
		cli.StringFlag{Name: "out, o", Usage: "output directory"},
		cli.StringFlag{Name: "name", Usage: "artifact file name (single video only)"},
		cli.BoolFlag{Name: "dry-run", Usage: "use the in-memory encoder, nothing is written"},
		cli.BoolFlag{Name: "quiet, q", Usage: "no progress bar"},
		cli.StringFlag{Name: "metrics", Usage: "write prometheus metrics to this textfile"},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, path, exists, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if exists {
		log.Debugf("Config loaded from %s", path)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	if w := c.Int("width"); w > 0 {
		cfg.Frames.Width = w
	}
	if h := c.Int("height"); h > 0 {
		cfg.Frames.Height = h
	}
	if out := c.String("out"); out != "" {
		dir, err := config.ExpandPath(out)
		if err != nil {
			return nil, err
		}
		cfg.Output.Dir = dir
	}
	if name := c.String("name"); name != "" {
		cfg.Output.Naming = config.NamingFixed
		cfg.Output.Name = name
	}
	if m := c.String("metrics"); m != "" {
		cfg.Metrics.Textfile = m
	}
	return cfg, cfg.Validate()
}

func urlAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, proj, tier, err := cfg.Endpoint()
	if err != nil {
		return err
	}
	if s := c.String("service"); s != "" {
		if svc, err = gibs.ParseService(s); err != nil {
			return err
		}
	}
	if p := c.String("projection"); p != "" {
		if proj, err = gibs.ParseProjection(p); err != nil {
			return err
		}
	}
	if t := c.String("tier"); t != "" {
		if tier, err = gibs.ParseImagery(t); err != nil {
			return err
		}
	}
	u, err := gibs.Build(svc, proj, tier)
	if err != nil {
		return err
	}
	fmt.Println(u)
	return nil
}

func urlsAction(c *cli.Context) error {
	all, err := gibs.Endpoints()
	if err != nil {
		return err
	}
	for _, e := range all {
		fmt.Printf("%-5s %-10s %-5s %s\n", e.Service, e.Projection, e.Imagery, e.URL)
	}
	return nil
}

func productsAction(c *cli.Context) error {
	base, err := gibs.Build(gibs.TiledMapService, gibs.Geographic, gibs.Best)
	if err != nil {
		return err
	}
	day := time.Now().UTC().AddDate(0, 0, -1)
	for _, p := range gibs.Products() {
		q, err := gibs.GetMap{
			Layer:      p.Layer,
			Projection: gibs.Geographic,
			Format:     p.Image,
			Time:       day,
			Width:      512,
			Height:     512,
			BBox:       gibs.BBox{-180, -90, 180, 90},
		}.Query()
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %-4s %-4s %s\n  %s\n", p.Platform, p.Instrument, p.Image, p.Layer, base.WithQuery(q))
	}
	return nil
}

func newCore(c *cli.Context, cfg *config.Config, reg *prometheus.Registry) (*core.Core, error) {
	var enc encoder.Encoder
	if c.Bool("dry-run") {
		enc = encoder.NewMemory()
	} else {
		ff := encoder.NewFFmpeg(cfg.Encoder.FFmpeg)
		if _, err := ff.Available(); err != nil {
			return nil, err
		}
		enc = ff
	}
	return core.NewCore(ctx(), cfg, enc,
		core.WithQuiet(c.Bool("quiet")),
		core.WithMetrics(assembler.NewMetrics(reg)),
	)
}

func assembleAction(c *cli.Context) error {
	dir, err := getDir(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	cr, err := newCore(c, cfg, reg)
	if err != nil {
		return err
	}
	defer writeMetrics(cfg, reg)

	a, err := cr.Assemble(dir)
	if err != nil {
		return err
	}
	log.Infof("Video saved: %s (%d frames, %dx%d)", a.Path, a.Frames, a.Width, a.Height)
	return nil
}

func batchAction(c *cli.Context) error {
	dirs := []string(c.Args())
	if len(dirs) == 0 {
		return fmt.Errorf("At least one frames directory is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	cr, err := newCore(c, cfg, reg)
	if err != nil {
		return err
	}
	defer writeMetrics(cfg, reg)

	results, err := cr.Batch(dirs)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Error(r.Print())
			continue
		}
		log.Info(r.Print())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d videos failed", failed, len(results))
	}
	return nil
}

func sampleAction(c *cli.Context) error {
	dir, err := getDir(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cr, err := core.NewCore(ctx(), cfg, encoder.NewMemory(), core.WithQuiet(true))
	if err != nil {
		return err
	}
	paths, err := cr.Sample(dir, c.Int("count"))
	if err != nil {
		return err
	}
	log.Infof("Wrote %d %s frames (%dx%d) to %s", len(paths), frame.PNG, cfg.Frames.Width, cfg.Frames.Height, dir)
	return nil
}

func writeMetrics(cfg *config.Config, reg *prometheus.Registry) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, reg); err != nil {
		log.Warnf("Cannot write metrics: %v", err)
	}
}

func getDir(c *cli.Context) (string, error) {
	d := strings.TrimSpace(c.Args().Get(0))
	if d == "" {
		return "", fmt.Errorf("Frames directory is required")
	}
	return d, nil
}

var rootCtx context.Context

// ctx is cancelled on SIGINT/SIGTERM. Batches stop scheduling new videos;
// a running assembly finishes.
func ctx() context.Context {
	return rootCtx
}

func main() {
	var cancel context.CancelFunc
	rootCtx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := app.Run(os.Args)
	if err != nil {
		cancel()
		log.Fatal(err)
	}
}
