package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const channelBuffer = 256

// ErrPoolClosed is returned for work submitted after the pool stopped.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	run  func() error
	done chan error
	// claimed is set by whichever side takes the job out of the queue count
	// first: a worker dequeuing it, or Do abandoning it.
	claimed atomic.Bool
}

func (j *job) claim() bool {
	return j.claimed.CompareAndSwap(false, true)
}

// Pool runs CPU-bound jobs on a fixed set of workers so a burst of them
// cannot occupy every processor at once.
type Pool struct {
	jobs    chan *job
	workers int
	depth   prometheus.Gauge
	stopped chan struct{}
	log     zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, runtime.NumCPU() is used. depth, when non-nil, tracks
// the number of queued jobs.
func NewPool(numWorkers int, depth prometheus.Gauge, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:    make(chan *job, channelBuffer),
		workers: numWorkers,
		depth:   depth,
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after which Do fails with ErrPoolClosed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(p.stopped)
	}()
}

// Do runs fn on a worker and waits for its result. If ctx ends first Do
// returns ctx.Err(); a job still queued is skipped, one already running
// completes but its result is dropped.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case <-p.stopped:
		return ErrPoolClosed
	default:
	}

	j := &job{run: fn, done: make(chan error, 1)}

	p.gaugeAdd(1)
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		p.gaugeAdd(-1)
		return ctx.Err()
	case <-p.stopped:
		p.gaugeAdd(-1)
		return ErrPoolClosed
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		p.abandon(j)
		return ctx.Err()
	case <-p.stopped:
		p.abandon(j)
		return ErrPoolClosed
	}
}

// abandon removes a job that no worker has dequeued yet from the depth count.
func (p *Pool) abandon(j *job) {
	if j.claim() {
		p.gaugeAdd(-1)
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			if !j.claim() {
				continue
			}
			p.gaugeAdd(-1)
			j.done <- p.safeRun(id, j.run)
		}
	}
}

func (p *Pool) safeRun(id int, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker_id", id).Interface("panic", r).Msg("worker job panicked")
			err = fmt.Errorf("worker job panicked: %v", r)
		}
	}()
	return fn()
}

func (p *Pool) gaugeAdd(delta float64) {
	if p.depth != nil {
		p.depth.Add(delta)
	}
}
