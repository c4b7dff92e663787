// Package thumbnails generates a grid of raw preview frames for a video.
package thumbnails

import (
	"context"
	"crypto/rand"
	"os"
	"sort"
	"time"

	"github.com/OdyseeTeam/thumbgrid/encoder"
	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/internal/metrics"
	"github.com/OdyseeTeam/thumbgrid/library"
	"github.com/OdyseeTeam/thumbgrid/media"
	"github.com/OdyseeTeam/thumbgrid/pkg/dispatcher"
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"
	"github.com/OdyseeTeam/thumbgrid/planner"

	"github.com/c2h5oh/datasize"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// MetadataResolver reports duration and dimensions of a video file.
type MetadataResolver interface {
	Probe(ctx context.Context, file string) (*media.Metadata, error)
}

// FrameExtractor writes a single raw frame for a job.
type FrameExtractor interface {
	Extract(ctx context.Context, in string, job planner.Job, res formats.Resolution) error
}

type Generator struct {
	*Configuration
}

type Configuration struct {
	count     int
	bound     formats.Resolution
	workers   int
	prober    MetadataResolver
	extractor FrameExtractor
	log       logging.KVLogger
}

// JobFailure records a thumbnail that could not be produced.
type JobFailure struct {
	Index     int
	Timestamp string
	Err       error
}

// Report summarizes a generation run. Individual job failures do not make the run fail,
// they are listed here instead.
type Report struct {
	RunID     string
	Dir       string
	Metadata  media.Metadata
	Plan      planner.Plan
	Attempted int
	Succeeded int
	Failures  []JobFailure
	Size      int64
	Elapsed   time.Duration
	// Durations holds the extraction time of every job, by index.
	Durations []time.Duration
}

// Partial tells if some thumbnails are missing.
func (r *Report) Partial() bool {
	return len(r.Failures) > 0
}

// Slowest returns the index and duration of the longest extraction.
func (r *Report) Slowest() (int, time.Duration) {
	idx, longest := -1, time.Duration(0)
	for i, d := range r.Durations {
		if idx < 0 || d > longest {
			idx, longest = i, d
		}
	}
	return idx, longest
}

func (r *Report) FailedIndices() []int {
	idx := make([]int, len(r.Failures))
	for i, f := range r.Failures {
		idx[i] = f.Index
	}
	return idx
}

func Configure() *Configuration {
	return &Configuration{
		count:   150,
		bound:   formats.Thumb200,
		workers: 1,
		log:     logging.NoopKVLogger{},
	}
}

// Count sets the number of thumbnails per video.
func (c *Configuration) Count(n int) *Configuration {
	c.count = n
	return c
}

// Bound sets the box every thumbnail must fit in.
func (c *Configuration) Bound(r formats.Resolution) *Configuration {
	c.bound = r
	return c
}

// Workers sets how many extractions may run at once.
func (c *Configuration) Workers(n int) *Configuration {
	c.workers = n
	return c
}

func (c *Configuration) Prober(p MetadataResolver) *Configuration {
	c.prober = p
	return c
}

func (c *Configuration) Extractor(e FrameExtractor) *Configuration {
	c.extractor = e
	return c
}

func (c *Configuration) Log(l logging.KVLogger) *Configuration {
	c.log = l
	return c
}

func NewGenerator(cfg *Configuration) (*Generator, error) {
	if cfg.prober == nil || cfg.extractor == nil {
		return nil, errors.New("prober and extractor must be configured")
	}
	if cfg.workers < 1 {
		return nil, errors.Errorf("invalid number of workers: %v", cfg.workers)
	}
	return &Generator{cfg}, nil
}

type extractWorker struct {
	ctx       context.Context
	in        string
	res       formats.Resolution
	extractor FrameExtractor
	log       logging.KVLogger
}

func (w extractWorker) Do(t dispatcher.Task) error {
	job, ok := t.Payload.(planner.Job)
	if !ok {
		return dispatcher.ErrInvalidPayload
	}
	started := time.Now()
	err := w.extractor.Extract(w.ctx, w.in, job, w.res)
	t.SetResult(time.Since(started))
	if err != nil {
		w.log.Error("thumbnail extraction failed", "index", job.Index, "timestamp", encoder.FormatTime(job.Timestamp), "err", err)
		return err
	}
	return nil
}

// Generate probes video, plans the grid and extracts every thumbnail into a
// per-video directory under cacheRoot.
// Only probing, planning and directory creation errors are returned.
func (g *Generator) Generate(ctx context.Context, video, cacheRoot string) (*Report, error) {
	started := time.Now()
	runID := ulid.MustNew(ulid.Timestamp(started), rand.Reader).String()
	ll := logging.AddRunRef(g.log, runID).With("video", video)

	cache := library.New(cacheRoot)
	dir := cache.Dir(video)

	meta, err := g.prober.Probe(ctx, video)
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.StageProbe).Inc()
		return nil, err
	}
	metrics.SourceDurationSeconds.Set(meta.Duration)

	plan, err := planner.New(*meta, g.count, g.bound)
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.StagePlan).Inc()
		return nil, err
	}
	ll.Info(
		"thumbnail plan ready",
		"original_dimensions", plan.Source.String(),
		"thumbnail_dimensions", plan.Output.String(),
		"count", plan.Count,
		"interval", plan.Interval,
		"duration", plan.Duration,
	)

	if _, err := cache.Prepare(video); err != nil {
		metrics.Errors.WithLabelValues(metrics.StageFS).Inc()
		return nil, errors.Wrap(err, "cannot create thumbnail directory")
	}
	if err := library.CheckSpace(dir, uint64(int64(plan.Count)*plan.FrameSize())); err != nil {
		metrics.Errors.WithLabelValues(metrics.StageFS).Inc()
		return nil, err
	}

	d, err := dispatcher.Start(g.workers, extractWorker{
		ctx:       ctx,
		in:        video,
		res:       plan.Output,
		extractor: g.extractor,
		log:       ll,
	})
	if err != nil {
		return nil, err
	}

	jobs := plan.Jobs(dir)
	results := make([]*dispatcher.Result, len(jobs))
	for i, j := range jobs {
		results[i] = d.Dispatch(j)
	}
	d.Stop()
	metrics.ThumbnailsAttempted.Add(float64(len(jobs)))

	report := &Report{
		RunID:     runID,
		Dir:       dir,
		Metadata:  *meta,
		Plan:      plan,
		Attempted: len(jobs),
		Durations: make([]time.Duration, len(jobs)),
	}
	failed := map[int]error{}
	for i, r := range results {
		if r.Failed() || r.Status() == dispatcher.TaskDropped {
			failed[jobs[i].Index] = r.Error()
		}
		if took, ok := r.Value().(time.Duration); ok {
			report.Durations[jobs[i].Index] = took
			metrics.ExtractionSpentSeconds.Observe(took.Seconds())
		}
	}

	vr, err := library.Validate(dir, plan.Count, plan.FrameSize())
	if err != nil {
		ll.Warn("cannot validate thumbnails", "err", err)
	} else {
		report.Size = vr.Size
		for _, i := range vr.Missing {
			if _, ok := failed[i]; !ok {
				failed[i] = errors.Errorf("thumbnail %v is missing or not %v bytes long", planner.FileName(i), plan.FrameSize())
			}
		}
	}

	for i, err := range failed {
		report.Failures = append(report.Failures, JobFailure{
			Index:     i,
			Timestamp: encoder.FormatTime(plan.Timestamp(i)),
			Err:       err,
		})
	}
	sort.Slice(report.Failures, func(a, b int) bool { return report.Failures[a].Index < report.Failures[b].Index })
	report.Succeeded = report.Attempted - len(report.Failures)
	report.Elapsed = time.Since(started)

	metrics.ThumbnailsGenerated.Add(float64(report.Succeeded))
	metrics.ThumbnailsFailed.Add(float64(len(report.Failures)))
	metrics.ThumbnailsSizeBytes.Add(float64(report.Size))
	metrics.GenerationSpentSeconds.Observe(report.Elapsed.Seconds())
	if report.Partial() {
		metrics.Errors.WithLabelValues(metrics.StageExtract).Add(float64(len(report.Failures)))
	}

	if err := library.WriteManifest(dir, g.manifest(report, video)); err != nil {
		ll.Warn("manifest not written", "err", err)
	}

	slowest, slowestTook := report.Slowest()
	ll.Info(
		"thumbnails generated",
		"slowest_index", slowest,
		"slowest_seconds", slowestTook.Seconds(),
		"dir", dir,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"size", datasize.ByteSize(report.Size).HR(),
		"seconds_spent", report.Elapsed.Seconds(),
	)
	return report, nil
}

func (g *Generator) manifest(r *Report, video string) *library.Manifest {
	var size int64
	if fi, err := os.Stat(video); err == nil {
		size = fi.Size()
	}
	return &library.Manifest{
		RunID:        r.RunID,
		Source:       video,
		SourceSize:   size,
		Duration:     r.Metadata.Duration,
		SourceWidth:  r.Plan.Source.Width,
		SourceHeight: r.Plan.Source.Height,
		Width:        r.Plan.Output.Width,
		Height:       r.Plan.Output.Height,
		PixelFormat:  formats.PixelFormatBGRA,
		Count:        r.Plan.Count,
		Interval:     r.Plan.Interval,
		GeneratedAt:  time.Now().UTC(),
		Failed:       r.FailedIndices(),
	}
}
