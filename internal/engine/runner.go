package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/syncutil"
)

// Runner defaults.
const (
	DefaultTick             = time.Millisecond
	DefaultNoTrafficWarning = 3 * time.Second
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Tick is the interval between idle drains of the bus.
	Tick time.Duration
	// NoTrafficWarning is how long the runner waits for the first frame
	// before warning once. Zero disables the check.
	NoTrafficWarning time.Duration
	// OnNoTraffic is called once when the warning fires.
	OnNoTraffic func()
}

type job struct {
	req   Request
	reply chan Result
}

// Runner owns the engine's control goroutine. Between requests it drains the
// bus on every tick so the tracker follows the peers; queued requests run
// one at a time on the same goroutine.
type Runner struct {
	eng  *Engine
	opts RunnerOptions

	jobs     chan job
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	mu       syncutil.Mutex
}

// NewRunner creates a runner for eng. Call Start to run it.
func NewRunner(eng *Engine, opts RunnerOptions) *Runner {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	return &Runner{
		eng:  eng,
		opts: opts,
		jobs: make(chan job),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the control goroutine. It is a no-op when already started.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	go r.loop()
}

func (r *Runner) loop() {
	defer close(r.done)

	clock := r.eng.opts.Clock
	start := clock.Now()
	ticker := clock.NewTicker(r.opts.Tick)
	defer ticker.Stop()

	warned := r.opts.NoTrafficWarning <= 0

	for {
		select {
		case <-r.stop:
			return
		case j := <-r.jobs:
			j.reply <- r.eng.Apply(j.req)
		case <-ticker.Chan():
			r.eng.Poll(0)
			if !warned && clock.Since(start) > r.opts.NoTrafficWarning {
				warned = true
				if r.eng.Stats().Total == 0 {
					logging.Warn("No traffic received",
						zap.Duration("after", r.opts.NoTrafficWarning),
					)
					if r.opts.OnNoTraffic != nil {
						r.opts.OnNoTraffic()
					}
				}
			}
		}
	}
}

// Submit queues req and waits for its result. A request that has started is
// always run to completion; ctx only bounds the wait for the runner to pick
// it up and for the caller to receive the result.
func (r *Runner) Submit(ctx context.Context, req Request) (Result, error) {
	j := job{req: req, reply: make(chan Result, 1)}
	select {
	case r.jobs <- j:
	case <-r.done:
		return Result{}, ErrRunnerStopped
	case <-r.stop:
		return Result{}, ErrRunnerStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-j.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop ends the control goroutine after any running request finishes and
// waits for it to exit.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		<-r.done
	}
}
