package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
	"github.com/muurk/fisinject/internal/syncutil"
)

// maxDrain bounds one zero-duration poll so a flooding peer cannot hold it.
const maxDrain = 1024

// Stats counts the frames a Monitor has processed.
type Stats struct {
	Total     uint64            `json:"total"`
	Watched   uint64            `json:"watched"`
	Other     uint64            `json:"other"`
	Empty     uint64            `json:"empty"`
	ByType    map[string]uint64 `json:"by_type"`
	Synced    uint64            `json:"synced"`
	Ignored   uint64            `json:"ignored"`
	RecvError uint64            `json:"recv_errors"`
}

// Monitor polls the bus and keeps the tracker and liveness flag current.
type Monitor struct {
	bus       can.Bus
	tracker   *Tracker
	clock     clockwork.Clock
	slice     time.Duration
	hostID    uint32
	displayID uint32
	observers observers

	active atomic.Bool

	mu       syncutil.Mutex
	stats    Stats
	byType   [protocol.TypeAck + 1]uint64
	last     can.Frame
	haveLast bool
}

// NewMonitor creates a monitor. opts must already carry defaults.
func NewMonitor(bus can.Bus, tracker *Tracker, opts Options) *Monitor {
	return &Monitor{
		bus:       bus,
		tracker:   tracker,
		clock:     opts.Clock,
		slice:     opts.PollSlice,
		hostID:    opts.HostID,
		displayID: opts.DisplayID,
		observers: opts.Observers,
	}
}

// Poll processes traffic for d. With d == 0 it drains whatever is queued, up
// to maxDrain frames, and returns. It returns the last watched frame seen during this call.
func (m *Monitor) Poll(d time.Duration) (can.Frame, bool) {
	last, seen, _ := m.poll(d, nil)
	return last, seen
}

// PollUntil is Poll that returns early, with the matching frame, as soon as
// match reports true for a watched frame. ok is false when nothing matched
// within d.
func (m *Monitor) PollUntil(d time.Duration, match func(can.Frame, protocol.Header) bool) (f can.Frame, ok bool) {
	f, _, ok = m.poll(d, match)
	return f, ok
}

func (m *Monitor) poll(d time.Duration, match func(can.Frame, protocol.Header) bool) (last can.Frame, seen, matched bool) {
	// handle reports whether polling should stop.
	handle := func(f can.Frame) bool {
		h, watched := m.process(f)
		if !watched {
			return false
		}
		last, seen = f, true
		if match != nil && match(f, h) {
			matched = true
			return true
		}
		return false
	}

	if d <= 0 {
		for range maxDrain {
			f, ok, err := m.bus.Receive(0)
			if err != nil {
				m.recvError(err)
				return
			}
			if !ok || handle(f) {
				return
			}
		}
		return
	}

	deadline := m.clock.Now().Add(d)
	for {
		remaining := deadline.Sub(m.clock.Now())
		if remaining <= 0 {
			return
		}
		timeout := min(remaining, m.slice)

		f, ok, err := m.bus.Receive(timeout)
		if err != nil {
			m.recvError(err)
			if errors.Is(err, can.ErrClosed) {
				return
			}
			m.clock.Sleep(timeout)
			continue
		}
		if ok && handle(f) {
			return
		}
	}
}

// process classifies one frame and reports whether it came from a watched id.
func (m *Monitor) process(f can.Frame) (protocol.Header, bool) {
	m.mu.Lock()
	m.stats.Total++
	m.mu.Unlock()

	var dir Direction
	switch f.ID {
	case m.hostID:
		dir = FromHost
	case m.displayID:
		dir = FromDisplay
	default:
		m.mu.Lock()
		m.stats.Other++
		m.mu.Unlock()
		return protocol.Header{}, false
	}
	if len(f.Data) == 0 {
		m.mu.Lock()
		m.stats.Empty++
		m.mu.Unlock()
		return protocol.Header{}, false
	}

	h := protocol.Decode(f.Data)
	if h.IsHeartbeat() && !m.active.Swap(true) {
		logging.Info("Bus active", zap.String("source", idString(f.ID)), zap.Stringer("header", h))
	}
	synced := m.tracker.Observe(f.ID, h)
	seq := m.tracker.Current()

	m.mu.Lock()
	m.stats.Watched++
	m.byType[h.Type]++
	switch {
	case synced:
		m.stats.Synced++
	case h.IsData() || h.Type == protocol.TypeAck:
		m.stats.Ignored++
	}
	m.last, m.haveLast = f, true
	m.mu.Unlock()

	logging.LogFrame(dir.String(), f, h.String())
	m.observers.traffic(TrafficEvent{
		At:        m.clock.Now(),
		Direction: dir,
		Frame:     f,
		Header:    h,
		Synced:    synced,
		Seq:       seq,
	})
	return h, true
}

func (m *Monitor) recvError(err error) {
	m.mu.Lock()
	m.stats.RecvError++
	m.mu.Unlock()
	if !errors.Is(err, can.ErrClosed) {
		logging.Warn("CAN receive failed", zap.Error(err))
	}
}

// Active reports whether a heartbeat has been seen from either peer.
func (m *Monitor) Active() bool {
	return m.active.Load()
}

// LastSeen returns the most recent watched frame.
func (m *Monitor) LastSeen() (can.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.haveLast
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.ByType = make(map[string]uint64, len(m.byType))
	for t, n := range m.byType {
		if n > 0 {
			s.ByType[protocol.Type(t).String()] = n
		}
	}
	return s
}
