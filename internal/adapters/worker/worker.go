package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

// ErrJobPanic is returned for a job that panicked.
var ErrJobPanic = errors.New("job panicked")

// Job handles item i of a batch.
type Job func(ctx context.Context, i int) error

// Pool runs jobs on at most Size goroutines. A Pool holds no goroutines
// between batches and may be shared by concurrent callers.
type Pool struct {
	name   string
	size   int
	logger logger.Logger
}

// NewPool creates a pool of size workers; a size below one uses NumCPU.
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{name: "pool", size: size}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker")
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Size returns the worker count.
func (p *Pool) Size() int { return p.size }

// Run calls job for every i in [0, n) and waits for all of them. Job errors
// are joined in index order. Once ctx is done, jobs not yet started are
// skipped and ctx.Err() is included once.
func (p *Pool) Run(ctx context.Context, n int, job Job) error {
	if n <= 0 {
		return nil
	}
	workers := min(p.size, n)
	errs := make([]error, n)
	next := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(id string) {
			defer wg.Done()
			for i := range next {
				errs[i] = p.do(ctx, id, i, job)
			}
		}("worker-" + strconv.Itoa(w))
	}

	var ctxErr error
feed:
	for i := range n {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()

	return errors.Join(append(errs, ctxErr)...)
}

func (p *Pool) do(ctx context.Context, id string, i int, job Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: item %d: %v", ErrJobPanic, i, r)
			p.logger.Error(ctx, "job panicked", logger.String("worker", id), logger.Int("item", i), logger.Any("panic", r))
		}
		metrics.RecordWorkerJob(p.name, float64(time.Since(start).Milliseconds()))
	}()
	return job(ctx, i)
}
