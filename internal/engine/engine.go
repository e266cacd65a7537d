package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/syncutil"
)

// Engine owns the protocol state for one bus. Poll and Apply are serialised:
// only one of them touches the bus and the tracker at a time.
type Engine struct {
	mu   syncutil.Mutex
	bus  can.Bus
	opts Options

	tracker *Tracker
	monitor *Monitor
	sender  *Sender
	arbiter *Arbiter
}

// New builds an engine on bus.
func New(bus can.Bus, opts Options) *Engine {
	opts = opts.withDefaults()
	tracker := NewTracker(opts.HostID, opts.DisplayID)
	monitor := NewMonitor(bus, tracker, opts)
	sender := NewSender(bus, tracker, monitor, opts)
	return &Engine{
		bus:     bus,
		opts:    opts,
		tracker: tracker,
		monitor: monitor,
		sender:  sender,
		arbiter: NewArbiter(sender, monitor, opts),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Poll processes bus traffic for d; see Monitor.Poll.
func (e *Engine) Poll(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitor.Poll(d)
}

// WaitActive polls until a heartbeat has been seen or timeout elapses.
func (e *Engine) WaitActive(timeout time.Duration) bool {
	if e.Active() {
		return true
	}
	deadline := e.opts.Clock.Now().Add(timeout)
	for !e.Active() {
		remaining := deadline.Sub(e.opts.Clock.Now())
		if remaining <= 0 {
			return false
		}
		e.Poll(min(remaining, e.opts.PollSlice))
	}
	return true
}

// Apply runs one display update. It returns Result.Skipped without touching
// the bus when no heartbeat has been seen.
func (e *Engine) Apply(req Request) Result {
	e.mu.Lock()
	res := e.arbiter.Apply(req)
	e.mu.Unlock()

	if !res.Skipped {
		if err := res.Err(); err != nil {
			logging.Warn("Update finished with errors", zap.Error(err))
		} else {
			logging.Info("Update applied", zap.Int("steps", len(res.Steps)))
		}
	}
	observers(e.opts.Observers).result(req, res)
	return res
}

// Claim runs a single claim step; see Arbiter.Claim.
func (e *Engine) Claim(zone Zone) StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arbiter.Claim(zone)
}

// Write runs a single write step.
func (e *Engine) Write(zone Zone, line int, text string) StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arbiter.Write(zone, line, text)
}

// Release runs a single release step.
func (e *Engine) Release(zone Zone) StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arbiter.Release(zone)
}

// Active reports whether a heartbeat has been seen.
func (e *Engine) Active() bool {
	return e.monitor.Active()
}

// Seq returns the tracker's current sequence number.
func (e *Engine) Seq() uint8 {
	return e.tracker.Current()
}

// Stats returns the monitor counters.
func (e *Engine) Stats() Stats {
	return e.monitor.Stats()
}

// Status is a point in time snapshot for status surfaces.
type Status struct {
	Active bool                    `json:"active"`
	Seq    uint8                   `json:"seq"`
	Zones  map[string]SessionState `json:"zones"`
	Stats  Stats                   `json:"stats"`
	Last   string                  `json:"last_frame,omitempty"`
}

// Status returns a snapshot without waiting for a running transaction.
func (e *Engine) Status() Status {
	s := Status{
		Active: e.Active(),
		Seq:    e.Seq(),
		Stats:  e.Stats(),
		Zones: map[string]SessionState{
			ZoneTop.String():    e.arbiter.State(ZoneTop),
			ZoneMiddle.String(): e.arbiter.State(ZoneMiddle),
		},
	}
	if f, ok := e.monitor.LastSeen(); ok {
		s.Last = f.String()
	}
	return s
}

// Close closes the bus.
func (e *Engine) Close() error {
	return e.bus.Close()
}
