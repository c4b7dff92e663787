// Package media resolves duration and picture size of video files with ffprobe.
package media

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/pkg/ffbin"
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"

	"github.com/pkg/errors"
)

// ErrMetadata is returned when a file cannot be probed. It is fatal for a generation run.
var ErrMetadata = errors.New("cannot resolve media metadata")

var (
	durationArgs   = []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1"}
	dimensionsArgs = []string{"-v", "error", "-select_streams", "v:0", "-show_entries", "stream=width,height", "-of", "csv=s=x:p=0"}
)

// Metadata is what a generation run needs to know about the source video.
type Metadata struct {
	Duration      float64
	Width, Height int
}

func (m Metadata) Resolution() formats.Resolution {
	return formats.Resolution{Width: m.Width, Height: m.Height}
}

type Prober struct {
	*Configuration
	bin string
}

type Configuration struct {
	ffprobePath string
	log         logging.KVLogger
}

func Configure() *Configuration {
	return &Configuration{
		log: logging.NoopKVLogger{},
	}
}

// FFprobePath sets an explicit ffprobe location, bypassing lookup.
func (c *Configuration) FFprobePath(p string) *Configuration {
	c.ffprobePath = p
	return c
}

func (c *Configuration) Log(l logging.KVLogger) *Configuration {
	c.log = l
	return c
}

// NewProber locates ffprobe. A missing binary is reported as ErrMetadata.
func NewProber(cfg *Configuration) (*Prober, error) {
	bin, err := ffbin.Find(ffbin.FFprobe, cfg.ffprobePath)
	if err != nil {
		return nil, errors.Wrapf(ErrMetadata, "%v", err)
	}
	cfg.log.Debug("ffprobe located", "path", bin)
	return &Prober{Configuration: cfg, bin: bin}, nil
}

// Probe queries duration and first video stream dimensions of file.
func (p *Prober) Probe(ctx context.Context, file string) (*Metadata, error) {
	ll := p.log.With("file", file)

	out, err := p.run(ctx, durationArgs, file)
	if err != nil {
		return nil, err
	}
	duration, err := ParseDuration(out)
	if err != nil {
		return nil, err
	}

	out, err = p.run(ctx, dimensionsArgs, file)
	if err != nil {
		return nil, err
	}
	w, h, err := ParseDimensions(out)
	if err != nil {
		return nil, err
	}

	m := &Metadata{Duration: duration, Width: w, Height: h}
	ll.Debug("probed", "duration", m.Duration, "resolution", m.Resolution())
	return m, nil
}

func (p *Prober) run(ctx context.Context, args []string, file string) (string, error) {
	a := append(append([]string{}, args...), file)
	out, err := ffbin.Run(ctx, p.bin, a...)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "probing interrupted")
		}
		return "", errors.Wrapf(
			ErrMetadata,
			"executing %v %v: %v: %v", p.bin, strings.Join(a, " "), err, out.Stderr)
	}
	return out.Stdout, nil
}

// ParseDuration reads a positive duration in seconds from plain ffprobe output.
func ParseDuration(out string) (float64, error) {
	s := firstLine(out)
	if s == "" || s == "N/A" {
		return 0, errors.Wrapf(ErrMetadata, "no duration reported (%q)", s)
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMetadata, "cannot parse duration %q", s)
	}
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, errors.Wrapf(ErrMetadata, "invalid duration %v", d)
	}
	return d, nil
}

// ParseDimensions reads `WIDTHxHEIGHT` of the first video stream.
func ParseDimensions(out string) (int, int, error) {
	s := firstLine(out)
	if s == "" {
		return 0, 0, errors.Wrap(ErrMetadata, "no video stream reported")
	}
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(ErrMetadata, "cannot parse dimensions %q", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrapf(ErrMetadata, "cannot parse width %q", parts[0])
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrapf(ErrMetadata, "cannot parse height %q", parts[1])
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.Wrapf(ErrMetadata, "invalid dimensions %vx%v", w, h)
	}
	return w, h, nil
}

func firstLine(out string) string {
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
