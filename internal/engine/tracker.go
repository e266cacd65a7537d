package engine

import (
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
	"github.com/muurk/fisinject/internal/syncutil"
)

// Tracker holds the sequence number the engine must use for its next frame.
type Tracker struct {
	mu        syncutil.Mutex
	seq       uint8
	hostID    uint32
	displayID uint32
}

// NewTracker creates a tracker starting at sequence 0.
func NewTracker(hostID, displayID uint32) *Tracker {
	return &Tracker{hostID: hostID, displayID: displayID}
}

// Current returns the next sequence number to send.
func (t *Tracker) Current() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Observe applies a header seen on the bus from source. An acknowledgment
// from the display controller sets the state to its sequence; a data frame
// from the host controller sets it to the following sequence. Any other
// combination leaves the state alone. Observe reports whether the header was
// applied.
func (t *Tracker) Observe(source uint32, h protocol.Header) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case h.Type == protocol.TypeAck && source == t.displayID:
		t.seq = h.Seq
	case h.IsData() && source == t.hostID:
		t.seq = protocol.NextSeq(h.Seq)
	default:
		if h.Type == protocol.TypeAck || h.IsData() {
			logging.Debug("Ignoring sequence from unexpected source",
				zap.String("source", idString(source)),
				zap.Stringer("header", h),
			)
		}
		return false
	}
	return true
}

// Advance steps the state after a local transmission and returns the new value.
func (t *Tracker) Advance() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq = protocol.NextSeq(t.seq)
	return t.seq
}

// Reset forces the state. Used by tests and the simulator.
func (t *Tracker) Reset(seq uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq = seq % protocol.SeqModulus
}
