package batch

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-sheet-mcp/internal/config"
)

func TestRunMixedBatch(t *testing.T) {
	good := encodePNG(t, createSheetImage(600, 600))
	blank := encodePNG(t, createTestImage(600, 600, color.White))

	jobs := []Job{
		{Name: "p0", Data: good},
		{Name: "p1", Data: blank},
		{Name: "p2", Data: []byte("not an image")},
		{Name: "p3", Image: createSheetImage(600, 600)},
		{Name: "p4", Data: good},
		{Name: "p5", Err: errors.New("scanner jammed")},
		{Name: "p6", Data: blank},
		{Name: "p7", Data: good},
	}
	want := []Outcome{
		OutcomeRectified, OutcomeNotScannable, OutcomeError, OutcomeRectified,
		OutcomeRectified, OutcomeError, OutcomeNotScannable, OutcomeRectified,
	}

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 3, PostQueueSize: 2, Thorough: true})
	report, err := c.Run(context.Background(), feed(jobs...))
	require.NoError(t, err)
	defer report.Close()

	require.Len(t, report.Results, len(jobs))
	for i, r := range report.Results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, jobs[i].Name, r.Name)
		assert.Equal(t, want[i], r.Outcome, "index %d: %s", i, r.Error)
		assert.Positive(t, r.Elapsed)
	}

	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 4, report.Rectified)
	assert.Equal(t, 2, report.NotScannable)
	assert.Equal(t, 2, report.Failed)
	assert.NotEmpty(t, report.BatchID)

	rectified := report.Results[0]
	require.NotNil(t, rectified.Sheet)
	assert.True(t, rectified.Sheet.Rectified())
	require.NotNil(t, rectified.Template)
	assert.Equal(t, "ENGLISH101", rectified.Template.Name)
	require.NotNil(t, rectified.Summary)
	assert.InDelta(t, 400, rectified.Summary.Width, 2)

	assert.Nil(t, report.Results[1].Sheet)
	assert.NotEmpty(t, report.Results[1].Error)
	assert.Contains(t, report.Results[5].Error, "scanner jammed")
}

func TestRunEveryIndexOnce(t *testing.T) {
	img := createSheetImage(400, 400)
	const n = 25

	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{Image: img}
	}

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 4, PostQueueSize: 3})
	report, err := c.Run(context.Background(), feed(jobs...))
	require.NoError(t, err)
	defer report.Close()

	require.Len(t, report.Results, n)
	seen := make(map[int]bool)
	for i, r := range report.Results {
		assert.Equal(t, i, r.Index)
		assert.False(t, seen[r.Index])
		seen[r.Index] = true
	}
	assert.Len(t, report.PostOrder, report.Rectified)
}

func TestRunPanicIsolatedToItsTask(t *testing.T) {
	jobs := []Job{
		{Name: "ok-0", Image: createSheetImage(600, 600)},
		{Name: "boom", Image: createSheetImage(601, 600)},
		{Name: "ok-2", Image: createSheetImage(600, 600)},
	}

	c := NewCoordinator(newTestPipeline(t, stubDecoder{panicWidth: 601}), Options{Workers: 2, PostQueueSize: 1})
	report, err := c.Run(context.Background(), feed(jobs...))
	require.NoError(t, err)
	defer report.Close()

	require.Len(t, report.Results, 3)
	assert.Equal(t, OutcomeRectified, report.Results[0].Outcome)
	assert.Equal(t, OutcomeError, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Error, "decoder exploded")
	assert.Nil(t, report.Results[1].Sheet)
	assert.Equal(t, OutcomeRectified, report.Results[2].Outcome)
	assert.Equal(t, 1, report.Failed)
}

func TestRunPostProcessingIsSerialFIFO(t *testing.T) {
	img := createSheetImage(400, 400)
	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = Job{Image: img}
	}

	var inflight, peak int64
	var mu sync.Mutex
	var seen []int
	post := PostProcessorFunc(func(ctx context.Context, r *Result) error {
		n := atomic.AddInt64(&inflight, 1)
		defer atomic.AddInt64(&inflight, -1)
		if n > atomic.LoadInt64(&peak) {
			atomic.StoreInt64(&peak, n)
		}
		mu.Lock()
		seen = append(seen, r.Index)
		mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil
	})

	// a single worker enqueues in index order
	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 1, PostQueueSize: 2, PostProcessor: post})
	report, err := c.Run(context.Background(), feed(jobs...))
	require.NoError(t, err)
	defer report.Close()

	assert.Equal(t, int64(1), peak)
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	assert.Equal(t, want, seen)
	assert.Equal(t, want, report.PostOrder)
}

func TestRunPostProcessorErrorsAreRecorded(t *testing.T) {
	post := Chain(
		PreviewProcessor(0.25),
		PostProcessorFunc(func(ctx context.Context, r *Result) error {
			return errors.New("scoring engine offline")
		}),
	)

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 1, PostQueueSize: 1, PostProcessor: post})
	report, err := c.Run(context.Background(), feed(Job{Image: createSheetImage(600, 600)}))
	require.NoError(t, err)
	defer report.Close()

	r := report.Results[0]
	assert.Equal(t, OutcomeRectified, r.Outcome)
	assert.Contains(t, r.PostError, "scoring engine offline")
	require.NotNil(t, r.Preview)
	assert.InDelta(t, 100, r.Preview.Bounds().Dx(), 1)
}

func TestRunPostProcessorPanicIsContained(t *testing.T) {
	img := createSheetImage(400, 400)
	var processed []int
	post := PostProcessorFunc(func(ctx context.Context, r *Result) error {
		if r.Index == 1 {
			panic("scoring engine crashed")
		}
		processed = append(processed, r.Index)
		return nil
	})

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 1, PostQueueSize: 1, PostProcessor: post})
	report, err := c.Run(context.Background(), feed(Job{Image: img}, Job{Image: img}, Job{Image: img}))
	require.NoError(t, err)
	defer report.Close()

	require.Len(t, report.Results, 3)
	for _, r := range report.Results {
		assert.Equal(t, OutcomeRectified, r.Outcome)
	}
	assert.Contains(t, report.Results[1].PostError, "task_failure")
	assert.Contains(t, report.Results[1].PostError, "scoring engine crashed")
	assert.Empty(t, report.Results[0].PostError)
	assert.Empty(t, report.Results[2].PostError)
	assert.Equal(t, []int{0, 2}, processed)
	assert.Equal(t, []int{0, 1, 2}, report.PostOrder)
}

func TestRunPreRotate(t *testing.T) {
	// landscape scan of a portrait sheet
	sideways := imaging.Rotate270(createSheetImage(600, 800))

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 1, PostQueueSize: 1, PreRotate: 90})
	report, err := c.Run(context.Background(), feed(Job{Image: sideways}))
	require.NoError(t, err)
	defer report.Close()

	r := report.Results[0]
	require.Equal(t, OutcomeRectified, r.Outcome, r.Error)
	assert.InDelta(t, 400, r.Summary.Width, 3)
	assert.InDelta(t, 600, r.Summary.Height, 3)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 2, PostQueueSize: 1})
	report, err := c.Run(ctx, make(chan Job))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
}

func TestReportCloseReleasesSheets(t *testing.T) {
	c := NewCoordinator(newTestPipeline(t, stubDecoder{}), Options{Workers: 1, PostQueueSize: 1})
	report, err := c.Run(context.Background(), feed(Job{Image: createSheetImage(600, 600)}))
	require.NoError(t, err)

	s := report.Results[0].Sheet
	require.NotNil(t, s)
	require.NoError(t, report.Close())
	assert.True(t, s.Closed())
	assert.NoError(t, report.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 5
	cfg.PostQueueSize = 7
	cfg.PreRotate = 270

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 5, opts.Workers)
	assert.Equal(t, 7, opts.PostQueueSize)
	assert.Equal(t, 270, opts.PreRotate)
	assert.True(t, opts.Thorough)
	assert.NotNil(t, opts.PostProcessor)
}
