package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Completed pairs a result with the submission index of its job
type Completed struct {
	Index  int
	Result Result
}

// Failure is the result recorded for a job that panicked
type Failure struct {
	Err error
}

// GetError returns the recovered failure
func (f *Failure) GetError() error {
	return f.Err
}

type task struct {
	index int
	job   Job
}

// Pool manages a bounded set of workers that execute jobs concurrently.
// Results are gathered in completion order.
type Pool struct {
	workers     int
	taskTimeout time.Duration
	jobQueue    chan task
	results     chan Completed
	collector   *ResultCollector
	collected   chan struct{}
	submitted   int
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	closeOnce   sync.Once
}

// NewPool creates a pool bound to ctx. A zero taskTimeout means jobs only
// stop when ctx does.
func NewPool(ctx context.Context, workers int, taskTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		taskTimeout: taskTimeout,
		jobQueue:    make(chan task, workers*2),
		results:     make(chan Completed, workers*2),
		collector:   NewResultCollector(),
		collected:   make(chan struct{}),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	go func() {
		defer close(p.collected)
		for c := range p.results {
			p.collector.Add(c)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- Completed{Index: t.index, Result: p.run(t.job)}
		}
	}
}

// run executes one job under the task timeout, converting a panic into a Failure
func (p *Pool) run(job Job) (result Result) {
	ctx := p.ctx
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = &Failure{Err: fmt.Errorf("job panicked: %v", r)}
		}
	}()

	return job.Execute(ctx)
}

// Submit queues a job and returns its index. Jobs submitted after
// Shutdown are dropped and return -1. Submit is not safe for concurrent use.
func (p *Pool) Submit(job Job) int {
	if p.ctx.Err() != nil {
		return -1
	}
	idx := p.submitted
	select {
	case <-p.ctx.Done():
		return -1
	case p.jobQueue <- task{index: idx, job: job}:
		p.submitted++
		return idx
	}
}

// Wait closes the queue, waits for every queued job and returns the results
// in completion order
func (p *Pool) Wait() []Completed {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collected
	p.cancelFunc()
	return p.collector.Results()
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// ResultCollector accumulates completed results
type ResultCollector struct {
	results []Completed
	mu      sync.Mutex
}

// NewResultCollector creates a new result collector
func NewResultCollector() *ResultCollector {
	return &ResultCollector{
		results: make([]Completed, 0),
	}
}

// Add adds a result to the collector (thread-safe)
func (c *ResultCollector) Add(result Completed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns a copy of all collected results
func (c *ResultCollector) Results() []Completed {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Completed, len(c.results))
	copy(out, c.results)
	return out
}
