package thumbnails

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/OdyseeTeam/thumbgrid/encoder"
	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/internal/testservices"
	"github.com/OdyseeTeam/thumbgrid/library"
	"github.com/OdyseeTeam/thumbgrid/media"
	"github.com/OdyseeTeam/thumbgrid/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type staticProber struct {
	meta *media.Metadata
	err  error
}

func (p staticProber) Probe(context.Context, string) (*media.Metadata, error) {
	return p.meta, p.err
}

type fakeExtractor struct {
	sync.Mutex
	failAt     map[int]bool
	truncateAt map[int]bool
	calls      map[int]planner.Job
}

func (e *fakeExtractor) Extract(_ context.Context, _ string, job planner.Job, res formats.Resolution) error {
	e.Lock()
	e.calls[job.Index] = job
	e.Unlock()
	if e.failAt[job.Index] {
		return &encoder.ExtractionError{Index: job.Index, Timestamp: encoder.FormatTime(job.Timestamp), Err: errors.New("exit status 1")}
	}
	size := res.FrameSize()
	if e.truncateAt[job.Index] {
		size /= 2
	}
	return os.WriteFile(job.Output, make([]byte, size), 0644)
}

type generatorSuite struct {
	suite.Suite
	cache string
	video string
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(generatorSuite))
}

func (s *generatorSuite) SetupTest() {
	s.cache = s.T().TempDir()
	s.video = filepath.Join(s.T().TempDir(), "Big Buck: Bunny.mp4")
	s.Require().NoError(os.WriteFile(s.video, make([]byte, 1000), 0644))
}

func (s *generatorSuite) generator(p MetadataResolver, e FrameExtractor) *Generator {
	g, err := NewGenerator(Configure().Prober(p).Extractor(e).Workers(runtime.NumCPU()))
	s.Require().NoError(err)
	return g
}

func (s *generatorSuite) TestGenerate() {
	ext := &fakeExtractor{calls: map[int]planner.Job{}}
	g := s.generator(staticProber{meta: &media.Metadata{Duration: 10, Width: 1920, Height: 1080}}, ext)

	r, err := g.Generate(context.Background(), s.video, s.cache)
	s.Require().NoError(err)

	expectedDir := filepath.Join(s.cache, "Big Buck Bunny-1000")
	s.Equal(expectedDir, r.Dir)
	s.Equal(formats.Resolution{Width: 200, Height: 112}, r.Plan.Output)
	s.Equal(150, r.Attempted)
	s.Equal(150, r.Succeeded)
	s.False(r.Partial())
	s.EqualValues(150*89600, r.Size)
	s.Len(ext.calls, 150)
	s.Equal("00:00:00.000", encoder.FormatTime(ext.calls[0].Timestamp))
	s.Equal("00:00:09.933", encoder.FormatTime(ext.calls[149].Timestamp))

	for i := 0; i < 150; i++ {
		fi, err := os.Stat(filepath.Join(expectedDir, planner.FileName(i)))
		s.Require().NoError(err)
		s.EqualValues(89600, fi.Size())
	}

	m, err := library.ReadManifest(expectedDir)
	s.Require().NoError(err)
	s.Equal(200, m.Width)
	s.Equal(112, m.Height)
	s.Equal(150, m.Count)
	s.Equal("bgra", m.PixelFormat)
	s.EqualValues(1000, m.SourceSize)
	s.Equal(r.RunID, m.RunID)
	s.Empty(m.Failed)

	s.Require().Len(r.Durations, 150)
	for i, d := range r.Durations {
		s.Greater(int64(d), int64(0), "job %v", i)
	}
	idx, longest := r.Slowest()
	s.Equal(longest, r.Durations[idx])
}

func (s *generatorSuite) TestGeneratePartialFailure() {
	ext := &fakeExtractor{
		calls:      map[int]planner.Job{},
		failAt:     map[int]bool{37: true},
		truncateAt: map[int]bool{120: true},
	}
	g := s.generator(staticProber{meta: &media.Metadata{Duration: 10, Width: 1920, Height: 1080}}, ext)

	r, err := g.Generate(context.Background(), s.video, s.cache)
	s.Require().NoError(err)

	// Every job is still attempted.
	s.Len(ext.calls, 150)
	s.True(r.Partial())
	s.Equal(148, r.Succeeded)
	s.Equal([]int{37, 120}, r.FailedIndices())
	s.Equal("00:00:02.467", r.Failures[0].Timestamp)

	var exErr *encoder.ExtractionError
	s.True(errors.As(r.Failures[0].Err, &exErr))
	s.Contains(r.Failures[1].Err.Error(), "000120.bgra")

	m, err := library.ReadManifest(r.Dir)
	s.Require().NoError(err)
	s.Equal([]int{37, 120}, m.Failed)
}

func (s *generatorSuite) TestProbeFailureIsFatal() {
	ext := &fakeExtractor{calls: map[int]planner.Job{}}
	g := s.generator(staticProber{err: media.ErrMetadata}, ext)

	_, err := g.Generate(context.Background(), s.video, s.cache)
	s.ErrorIs(err, media.ErrMetadata)
	s.Empty(ext.calls)

	entries, err := os.ReadDir(s.cache)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *generatorSuite) TestDirectoryFailureIsFatal() {
	blocker := filepath.Join(s.cache, "file")
	s.Require().NoError(os.WriteFile(blocker, nil, 0644))
	ext := &fakeExtractor{calls: map[int]planner.Job{}}
	g := s.generator(staticProber{meta: &media.Metadata{Duration: 10, Width: 1920, Height: 1080}}, ext)

	_, err := g.Generate(context.Background(), s.video, blocker)
	s.Error(err)
	s.Empty(ext.calls)
}

func (s *generatorSuite) TestCustomPlan() {
	ext := &fakeExtractor{calls: map[int]planner.Job{}}
	g, err := NewGenerator(Configure().
		Prober(staticProber{meta: &media.Metadata{Duration: 60, Width: 1280, Height: 720}}).
		Extractor(ext).
		Count(12).
		Bound(formats.Thumb320).
		Workers(2))
	s.Require().NoError(err)

	r, err := g.Generate(context.Background(), s.video, s.cache)
	s.Require().NoError(err)
	s.Equal(12, r.Succeeded)
	s.Equal(formats.Resolution{Width: 320, Height: 180}, r.Plan.Output)
	s.InDelta(5.0, r.Plan.Interval, 1e-9)
}

func (s *generatorSuite) TestNewGeneratorValidation() {
	_, err := NewGenerator(Configure())
	s.Error(err)
	_, err = NewGenerator(Configure().Prober(staticProber{}).Extractor(&fakeExtractor{}).Workers(0))
	s.Error(err)
}

func (s *generatorSuite) TestGenerateInterrupted() {
	if runtime.GOOS == "windows" {
		s.T().Skip("fake tools are shell scripts")
	}
	ffmpegBin, err := testservices.FFmpeg(s.T().TempDir(), testservices.FFmpegOptions{FrameSize: 89600})
	s.Require().NoError(err)
	extractor, err := encoder.NewExtractor(encoder.Configure().FFmpegPath(ffmpegBin))
	s.Require().NoError(err)
	g := s.generator(staticProber{meta: &media.Metadata{Duration: 10, Width: 1920, Height: 1080}}, extractor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := g.Generate(ctx, s.video, s.cache)
	s.Require().NoError(err)

	s.Equal(0, r.Succeeded)
	s.Require().Len(r.Failures, 150)
	for _, f := range r.Failures {
		s.ErrorIs(f.Err, context.Canceled, "job %v", f.Index)
	}
	var exErr *encoder.ExtractionError
	s.Require().True(errors.As(r.Failures[0].Err, &exErr))
	s.Equal("00:00:00.000", exErr.Timestamp)

	m, err := library.ReadManifest(r.Dir)
	s.Require().NoError(err)
	s.Len(m.Failed, 150)
	s.Equal(0, m.Failed[0])
	s.Equal(149, m.Failed[149])
}

func (s *generatorSuite) TestGenerateWithTools() {
	if runtime.GOOS == "windows" {
		s.T().Skip("fake tools are shell scripts")
	}
	bin := s.T().TempDir()
	probeBin, err := testservices.FFprobe(bin, testservices.FFprobeOptions{Duration: "10.000000", Dimensions: "1920x1080"})
	s.Require().NoError(err)
	ffmpegBin, err := testservices.FFmpeg(bin, testservices.FFmpegOptions{
		FrameSize: 89600,
		FailAt:    []string{"00:00:02.467"},
	})
	s.Require().NoError(err)

	prober, err := media.NewProber(media.Configure().FFprobePath(probeBin))
	s.Require().NoError(err)
	extractor, err := encoder.NewExtractor(encoder.Configure().FFmpegPath(ffmpegBin))
	s.Require().NoError(err)

	g := s.generator(prober, extractor)
	r, err := g.Generate(context.Background(), s.video, s.cache)
	s.Require().NoError(err)

	s.Equal(149, r.Succeeded)
	s.Equal([]int{37}, r.FailedIndices())
	s.Contains(r.Failures[0].Err.Error(), "simulated failure at 00:00:02.467")

	vr, err := library.Validate(r.Dir, 150, 89600)
	s.Require().NoError(err)
	s.Equal([]int{37}, vr.Missing)
}

func TestReportSlowest(t *testing.T) {
	r := &Report{Durations: []time.Duration{40 * time.Millisecond, 2 * time.Second, time.Second}}
	idx, longest := r.Slowest()
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2*time.Second, longest)

	idx, longest = (&Report{}).Slowest()
	assert.Equal(t, -1, idx)
	assert.Zero(t, longest)
}
