package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/config"
	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
	"github.com/ironsheep/omr-sheet-mcp/internal/sheet"
)

// Outcome classifies a processed page.
type Outcome string

const (
	OutcomeRectified    Outcome = "rectified"
	OutcomeNotScannable Outcome = "not_scannable"
	OutcomeError        Outcome = "error"
)

// Job is one acquired page. Image takes precedence over Data; Err marks a
// page that could not be acquired at all.
type Job struct {
	Name  string
	Data  []byte
	Image image.Image
	Err   error
}

// Result is the outcome of one page.
type Result struct {
	Index    int                       `json:"index"`
	Name     string                    `json:"name"`
	Outcome  Outcome                   `json:"outcome"`
	Error    string                    `json:"error,omitempty"`
	Template *barcode.TemplateIdentity `json:"template,omitempty"`
	Summary  *sheet.Summary            `json:"summary,omitempty"`
	Elapsed  time.Duration             `json:"elapsed_ns"`

	// PostError is set when post-processing of a rectified sheet failed.
	PostError string `json:"post_error,omitempty"`

	// Sheet is the rectified sheet, owned by the Report. Nil otherwise.
	Sheet *sheet.Sheet `json:"-"`

	// Preview is filled in by PreviewProcessor.
	Preview *image.NRGBA `json:"-"`
}

// Report is the outcome of a whole batch, ordered by index.
type Report struct {
	BatchID      string        `json:"batch_id"`
	Results      []*Result     `json:"results"`
	Total        int           `json:"total"`
	Rectified    int           `json:"rectified"`
	NotScannable int           `json:"not_scannable"`
	Failed       int           `json:"failed"`
	Elapsed      time.Duration `json:"elapsed_ns"`

	// PostOrder lists result indices in the order they were post-processed.
	PostOrder []int `json:"post_order"`
}

// Close releases every rectified sheet still held by the report.
func (r *Report) Close() error {
	var errs []error
	for _, res := range r.Results {
		if res.Sheet == nil || res.Sheet.Closed() {
			continue
		}
		if err := res.Sheet.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options tune a Coordinator.
type Options struct {
	Workers       int
	PostQueueSize int
	Thorough      bool

	// PreRotate turns every page counter-clockwise by 0, 90, 180 or 270
	// degrees before analysis.
	PreRotate int

	// PostProcessor receives rectified sheets. Nil means no post-processing
	// beyond the queue itself.
	PostProcessor PostProcessor
}

// OptionsFromConfig maps configuration onto Options with a preview
// post-processor.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:       cfg.Workers,
		PostQueueSize: cfg.PostQueueSize,
		Thorough:      cfg.Thorough,
		PreRotate:     cfg.PreRotate,
		PostProcessor: PreviewProcessor(cfg.PreviewScale),
	}
}

// Coordinator processes batches of pages through a sheet pipeline.
type Coordinator struct {
	pipeline *sheet.Pipeline
	opts     Options
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(pipeline *sheet.Pipeline, opts Options) *Coordinator {
	if opts.PostProcessor == nil {
		opts.PostProcessor = PostProcessorFunc(func(context.Context, *Result) error { return nil })
	}
	return &Coordinator{pipeline: pipeline, opts: opts}
}

// Run consumes jobs until the channel is closed and returns results for
// every page received, ordered by arrival index.
//
// Cancelling ctx stops Run from accepting further pages; pages already
// submitted still finish and are reported, and ctx's error is returned with
// the partial report. The caller must Close the report to release the
// rectified sheets.
func (c *Coordinator) Run(ctx context.Context, jobs <-chan Job) (*Report, error) {
	started := time.Now()
	batchID := uuid.NewString()
	log := logger.WithField("batch", batchID)

	pool := NewWorkerPool(c.opts.Workers)
	pool.Start()

	queue := newPostQueue(c.opts.PostQueueSize, c.opts.PostProcessor)
	queue.start(ctx)

	agg := newAggregator()

	log.WithField("workers", pool.Workers()).Info("Batch started")

	var runErr error
	index := 0
loop:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		case job, ok := <-jobs:
			if !ok {
				break loop
			}
			i := index
			index++
			pool.Submit(func() {
				r := c.process(batchID, i, job)
				agg.add(r)
				if r.Outcome == OutcomeRectified {
					queue.enqueue(r)
				}
			})
		}
	}

	pool.Close()
	order := queue.finish()

	report := &Report{
		BatchID:      batchID,
		Results:      agg.sorted(),
		Rectified:    agg.count(OutcomeRectified),
		NotScannable: agg.count(OutcomeNotScannable),
		Failed:       agg.count(OutcomeError),
		Elapsed:      time.Since(started),
		PostOrder:    order,
	}
	report.Total = len(report.Results)

	log.WithFields(logrus.Fields{
		"total":         report.Total,
		"rectified":     report.Rectified,
		"not_scannable": report.NotScannable,
		"failed":        report.Failed,
		"elapsed":       report.Elapsed.String(),
	}).Info("Batch finished")

	return report, runErr
}

// process turns one job into a result. It never panics and releases the
// sheet on every path except a successful rectification.
func (c *Coordinator) process(batchID string, index int, job Job) (r *Result) {
	started := time.Now()
	r = &Result{Index: index, Name: job.Name}
	log := logger.WithFields(logrus.Fields{"batch": batchID, "index": index, "name": job.Name})

	var s *sheet.Sheet
	defer func() {
		if p := recover(); p != nil {
			err := apperrors.NewTaskFailureError(fmt.Sprintf("panic: %v", p), nil)
			log.WithField("stack", string(debug.Stack())).WithError(err).Error("Sheet task panicked")
			r.Outcome = OutcomeError
			r.Error = err.Error()
			r.Sheet = nil
		}
		if s != nil && r.Sheet == nil && !s.Closed() {
			if err := s.Close(); err != nil {
				log.WithError(err).Warn("Failed to release sheet")
			}
		}
		r.Elapsed = time.Since(started)
		log.WithFields(logrus.Fields{
			"outcome": r.Outcome,
			"elapsed": r.Elapsed.String(),
		}).Info("Sheet processed")
	}()

	fail := func(err error) *Result {
		r.Outcome = OutcomeError
		r.Error = err.Error()
		log.WithError(err).WithField("error_type", apperrors.TypeOf(err)).Error("Sheet task failed")
		return r
	}

	if job.Err != nil {
		return fail(apperrors.NewTaskFailureError("page acquisition failed", job.Err))
	}

	img := job.Image
	if img == nil {
		decoded, _, err := imaging.Decode(job.Data)
		if err != nil {
			return fail(apperrors.NewTaskFailureError("failed to decode page", err))
		}
		img = decoded
	}
	if c.opts.PreRotate != 0 {
		oriented, err := imaging.Orient(img, c.opts.PreRotate)
		if err != nil {
			return fail(apperrors.NewInvalidInputError("failed to orient page", err))
		}
		img = oriented
	}

	s = c.pipeline.NewSheet(job.Name, img)
	if err := s.Analyze(c.opts.Thorough); err != nil {
		return fail(err)
	}

	summarize := func() {
		sum := s.Summarize()
		r.Summary = &sum
		r.Template = s.Template()
	}

	if !s.Scannable() {
		r.Outcome = OutcomeNotScannable
		r.Error = s.Reason().Error()
		summarize()
		return r
	}

	if err := s.Rectify(); err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeRectificationAborted) {
			return fail(err)
		}
		r.Outcome = OutcomeNotScannable
		r.Error = err.Error()
		summarize()
		return r
	}

	r.Outcome = OutcomeRectified
	summarize()
	r.Sheet = s
	return r
}
