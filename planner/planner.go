// Package planner computes the uniform sampling schedule for a thumbnail grid.
package planner

import (
	"fmt"
	"path/filepath"

	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/media"

	"github.com/pkg/errors"
)

var ErrInvalidPlan = errors.New("invalid sampling plan")

// Plan is the schedule shared by every thumbnail of a batch.
type Plan struct {
	Count    int
	Duration float64
	Interval float64
	Source   formats.Resolution
	Output   formats.Resolution
}

// Job is a single frame extraction. Jobs of a plan share no state.
type Job struct {
	Index     int
	Timestamp float64
	Output    string
}

// New lays count samples evenly over [0, duration) and fits the source
// resolution into bound.
func New(meta media.Metadata, count int, bound formats.Resolution) (Plan, error) {
	if count <= 0 {
		return Plan{}, errors.Wrapf(ErrInvalidPlan, "thumbnail count %v", count)
	}
	if !bound.Valid() {
		return Plan{}, errors.Wrapf(ErrInvalidPlan, "bounding box %v", bound)
	}
	if meta.Duration <= 0 || !meta.Resolution().Valid() {
		return Plan{}, errors.Wrapf(ErrInvalidPlan, "source %vs %v", meta.Duration, meta.Resolution())
	}
	return Plan{
		Count:    count,
		Duration: meta.Duration,
		Interval: meta.Duration / float64(count),
		Source:   meta.Resolution(),
		Output:   formats.Fit(meta.Resolution(), bound),
	}, nil
}

// Timestamp is the seek position of sample i in seconds.
func (p Plan) Timestamp(i int) float64 {
	return float64(i) * p.Interval
}

// Jobs lists one job per sample, writing into dir.
func (p Plan) Jobs(dir string) []Job {
	jobs := make([]Job, p.Count)
	for i := range jobs {
		jobs[i] = Job{
			Index:     i,
			Timestamp: p.Timestamp(i),
			Output:    filepath.Join(dir, FileName(i)),
		}
	}
	return jobs
}

// FrameSize is the expected size of every output file in bytes.
func (p Plan) FrameSize() int64 {
	return p.Output.FrameSize()
}

// FileName is the zero-padded output file name for sample i.
func FileName(i int) string {
	return fmt.Sprintf("%06d%s", i, formats.ThumbnailExt)
}
