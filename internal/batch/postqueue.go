package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
)

// PostProcessor consumes rectified sheets, one at a time, in enqueue order.
type PostProcessor interface {
	Process(ctx context.Context, r *Result) error
}

// PostProcessorFunc adapts a function to PostProcessor.
type PostProcessorFunc func(ctx context.Context, r *Result) error

// Process calls f.
func (f PostProcessorFunc) Process(ctx context.Context, r *Result) error {
	return f(ctx, r)
}

// Chain runs processors in order and joins their errors.
func Chain(processors ...PostProcessor) PostProcessor {
	return PostProcessorFunc(func(ctx context.Context, r *Result) error {
		var errs []error
		for _, p := range processors {
			if err := p.Process(ctx, r); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// PreviewProcessor stores a downscaled copy of each rectified page on its
// result.
func PreviewProcessor(scale float64) PostProcessor {
	return PostProcessorFunc(func(ctx context.Context, r *Result) error {
		if r.Sheet == nil {
			return nil
		}
		preview, err := r.Sheet.Preview(scale)
		if err != nil {
			return err
		}
		r.Preview = preview
		return nil
	})
}

// postQueue is a bounded FIFO drained by exactly one goroutine.
type postQueue struct {
	items     chan *Result
	done      chan struct{}
	processor PostProcessor
	order     []int
}

func newPostQueue(size int, processor PostProcessor) *postQueue {
	if size <= 0 {
		size = 1
	}
	return &postQueue{
		items:     make(chan *Result, size),
		done:      make(chan struct{}),
		processor: processor,
	}
}

func (q *postQueue) start(ctx context.Context) {
	go func() {
		defer close(q.done)
		for r := range q.items {
			q.order = append(q.order, r.Index)
			if err := q.process(ctx, r); err != nil {
				r.PostError = err.Error()
				logger.WithError(err).WithField("index", r.Index).Warn("Post-processing failed")
			}
		}
	}()
}

// process runs the processor on r. A panic becomes a task_failure error so
// the consumer keeps draining the queue.
func (q *postQueue) process(ctx context.Context, r *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = apperrors.NewTaskFailureError(fmt.Sprintf("post-processor panic: %v", p), nil)
			logger.WithField("index", r.Index).WithField("stack", string(debug.Stack())).
				Error("Post-processor panicked")
		}
	}()
	return q.processor.Process(ctx, r)
}

// enqueue blocks while the queue is full.
func (q *postQueue) enqueue(r *Result) {
	q.items <- r
}

// finish closes the queue and waits for the consumer to drain it. The
// processing order is valid afterwards.
func (q *postQueue) finish() []int {
	close(q.items)
	<-q.done
	return q.order
}
