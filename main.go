package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/OdyseeTeam/thumbgrid/encoder"
	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/internal/config"
	"github.com/OdyseeTeam/thumbgrid/internal/metrics"
	"github.com/OdyseeTeam/thumbgrid/library"
	"github.com/OdyseeTeam/thumbgrid/media"
	"github.com/OdyseeTeam/thumbgrid/pkg/dispatcher"
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"
	"github.com/OdyseeTeam/thumbgrid/pkg/logging/zapadapter"
	"github.com/OdyseeTeam/thumbgrid/thumbnails"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 2
)

var CLI struct {
	VideoPath     string `arg:"" name:"video_path" help:"Video file to generate preview thumbnails for."`
	ThumbnailsDir string `arg:"" name:"thumbnails_directory" help:"Cache directory, thumbnails go to a per-video subdirectory."`

	Config      string `optional:"" name:"config" help:"Config file (default: thumbgrid.yaml next to the binary or in the working directory)."`
	Count       int    `optional:"" name:"count" help:"Number of thumbnails (overrides config)."`
	MaxWidth    int    `optional:"" name:"max-width" help:"Maximum thumbnail width (overrides config)."`
	MaxHeight   int    `optional:"" name:"max-height" help:"Maximum thumbnail height (overrides config)."`
	Workers     int    `optional:"" name:"workers" help:"Parallel extractions (overrides config, default: number of CPUs)."`
	Strict      bool   `optional:"" name:"strict" help:"Exit with status 2 when some thumbnails could not be generated."`
	MetricsFile string `optional:"" name:"metrics-file" help:"Write run metrics to this file in Prometheus text format."`
	Debug       bool   `optional:"" name:"debug" help:"Debug logging."`
}

func main() {
	kong.Parse(
		&CLI,
		kong.Name("thumbgrid"),
		kong.Description("Generate raw BGRA preview thumbnails for a video player seek bar."),
	)
	os.Exit(run(context.Background()))
}

func run(parent context.Context) int {
	log := logging.Create("thumbgrid", logging.Config(CLI.Debug))
	defer log.Sync() // nolint:errcheck
	dispatcher.SetLogger(log.Named("dispatcher"))
	library.SetLogger(log.Named("library"))
	kvlog := zapadapter.NewKV(log.Desugar())

	cfg, err := config.Read(CLI.Config)
	if err != nil {
		log.Errorw("configuration error", "err", err)
		return exitFailure
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Errorw("configuration error", "err", err)
		return exitFailure
	}

	video := strings.Trim(CLI.VideoPath, `"`)
	cacheRoot := strings.Trim(CLI.ThumbnailsDir, `"`)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := generate(ctx, cfg, kvlog, video, cacheRoot)
	if CLI.MetricsFile != "" {
		dispatcher.RegisterMetrics()
		if werr := metrics.WriteTextfile(CLI.MetricsFile); werr != nil {
			log.Warnw("cannot write metrics", "file", CLI.MetricsFile, "err", werr)
		}
	}
	if ctx.Err() != nil {
		if report != nil {
			fmt.Fprintln(os.Stderr, "Interrupted, thumbnails are incomplete in:", report.Dir)
		} else {
			fmt.Fprintln(os.Stderr, "Interrupted:", err)
		}
		return exitFailure
	}
	if err != nil {
		if errors.Is(err, media.ErrMetadata) {
			fmt.Fprintln(os.Stderr, "Failed to get video metadata:", err)
		} else {
			fmt.Fprintln(os.Stderr, "Failed to generate thumbnails:", err)
		}
		return exitFailure
	}

	for _, f := range report.Failures {
		log.Warnw("thumbnail missing", "index", f.Index, "timestamp", f.Timestamp, "err", f.Err)
	}
	fmt.Printf("Thumbnails generated successfully in: %s\n", report.Dir)
	if report.Partial() {
		fmt.Fprintf(os.Stderr, "%d of %d thumbnails failed\n", len(report.Failures), report.Attempted)
		if CLI.Strict {
			return exitPartial
		}
	}
	return exitOK
}

func applyFlags(cfg *config.Config) {
	if CLI.Count != 0 {
		cfg.ThumbnailCount = CLI.Count
	}
	if CLI.MaxWidth != 0 {
		cfg.MaxWidth = CLI.MaxWidth
	}
	if CLI.MaxHeight != 0 {
		cfg.MaxHeight = CLI.MaxHeight
	}
	if CLI.Workers != 0 {
		cfg.Workers = CLI.Workers
	}
}

func generate(ctx context.Context, cfg *config.Config, log logging.KVLogger, video, cacheRoot string) (*thumbnails.Report, error) {
	prober, err := media.NewProber(media.Configure().FFprobePath(cfg.FFprobePath).Log(log))
	if err != nil {
		return nil, err
	}
	extractor, err := encoder.NewExtractor(
		encoder.Configure().FFmpegPath(cfg.FFmpegPath).Timeout(cfg.JobTimeout).Log(log),
	)
	if err != nil {
		return nil, err
	}
	g, err := thumbnails.NewGenerator(
		thumbnails.Configure().
			Count(cfg.ThumbnailCount).
			Bound(formats.Resolution{Width: cfg.MaxWidth, Height: cfg.MaxHeight}).
			Workers(cfg.Workers).
			Prober(prober).
			Extractor(extractor).
			Log(log),
	)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, video, cacheRoot)
}
