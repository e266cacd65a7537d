package engine

import "github.com/muurk/fisinject/internal/can"

// NewReplayMonitor returns a monitor that is fed frames instead of reading a
// bus, for offline analysis of captured traffic. Event times come from
// opts.Clock.
func NewReplayMonitor(opts Options) *Monitor {
	opts = opts.withDefaults()
	return NewMonitor(nil, NewTracker(opts.HostID, opts.DisplayID), opts)
}

// Feed processes f as if it had just been received.
func (m *Monitor) Feed(f can.Frame) {
	m.process(f)
}

// Seq returns the tracker's current sequence number.
func (m *Monitor) Seq() uint8 {
	return m.tracker.Current()
}
