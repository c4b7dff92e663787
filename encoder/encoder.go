package encoder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/pkg/ffbin"
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"
	"github.com/OdyseeTeam/thumbgrid/planner"
)

// ExtractionError is a failed extraction of a single frame. It never aborts a batch.
type ExtractionError struct {
	Index     int
	Timestamp string
	Stderr    string
	Err       error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("failed to generate thumbnail %06d (time %v): %v", e.Index, e.Timestamp, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type Extractor struct {
	*Configuration
	bin string
}

type Configuration struct {
	ffmpegPath string
	timeout    time.Duration
	log        logging.KVLogger
}

func Configure() *Configuration {
	return &Configuration{
		log: logging.NoopKVLogger{},
	}
}

// FFmpegPath sets an explicit ffmpeg location, bypassing lookup.
func (c *Configuration) FFmpegPath(p string) *Configuration {
	c.ffmpegPath = p
	return c
}

// Timeout limits a single extraction. Zero means no limit.
func (c *Configuration) Timeout(t time.Duration) *Configuration {
	c.timeout = t
	return c
}

func (c *Configuration) Log(l logging.KVLogger) *Configuration {
	c.log = l
	return c
}

func NewExtractor(cfg *Configuration) (*Extractor, error) {
	bin, err := ffbin.Find(ffbin.FFmpeg, cfg.ffmpegPath)
	if err != nil {
		return nil, err
	}
	cfg.log.Debug("ffmpeg located", "path", bin)
	return &Extractor{Configuration: cfg, bin: bin}, nil
}

// Extract writes the frame described by job as a raw BGRA buffer of resolution res.
// A failure is returned as *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, in string, job planner.Job, res formats.Resolution) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := FrameArguments(in, job, res).GetStrArguments()
	ts := FormatTime(job.Timestamp)
	e.log.Debug("running command", "cmd", e.bin+" "+strings.Join(args, " "))

	out, err := ffbin.Run(ctx, e.bin, args...)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &ExtractionError{Index: job.Index, Timestamp: ts, Stderr: out.Stderr, Err: err}
	}
	return nil
}
