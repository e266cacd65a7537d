// Package sim simulates the two bus peers the engine talks to: a host
// controller that sends heartbeats and a display controller that
// acknowledges transactions, applies claims, writes and releases, and
// answers each release with a data frame of its own.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
	"github.com/muurk/fisinject/internal/syncutil"
)

// ReleaseAnswer is the opcode the display controller puts in front of the
// zone in its answer to a release.
const ReleaseAnswer = 0x3B

// Options configures a Cluster.
type Options struct {
	HostID    uint32
	DisplayID uint32

	// HeartbeatInterval is the period of the host ping / display response
	// pair. Zero disables heartbeats, leaving the engine inactive.
	HeartbeatInterval time.Duration
	// PollSlice bounds each receive call.
	PollSlice time.Duration
	// DropAcks is the number of final frames to leave unacknowledged.
	DropAcks int
	// SilentRelease suppresses the data frame that answers a release.
	SilentRelease bool

	Clock clockwork.Clock
}

// DefaultOptions returns options for a responsive cluster.
func DefaultOptions() Options {
	return Options{
		HostID:            0x490,
		DisplayID:         0x491,
		HeartbeatInterval: 100 * time.Millisecond,
		PollSlice:         5 * time.Millisecond,
		Clock:             clockwork.NewRealClock(),
	}
}

// Cluster is the simulated pair of peers.
type Cluster struct {
	bus  can.Bus
	opts Options

	mu       syncutil.Mutex
	rx       protocol.Reassembler
	seq      uint8
	dropAcks int
	claimed  map[protocol.Zone]bool
	lines    map[int]string
	payloads [][]byte
	hostAcks []uint8
}

// New creates a cluster transmitting and receiving on bus.
func New(bus can.Bus, opts Options) *Cluster {
	d := DefaultOptions()
	if opts.HostID == 0 {
		opts.HostID = d.HostID
	}
	if opts.DisplayID == 0 {
		opts.DisplayID = d.DisplayID
	}
	if opts.PollSlice <= 0 {
		opts.PollSlice = d.PollSlice
	}
	if opts.Clock == nil {
		opts.Clock = d.Clock
	}
	return &Cluster{
		bus:      bus,
		opts:     opts,
		dropAcks: opts.DropAcks,
		claimed:  make(map[protocol.Zone]bool),
		lines:    make(map[int]string),
	}
}

// Run serves the bus until ctx is done or the bus is closed.
func (c *Cluster) Run(ctx context.Context) error {
	var beat <-chan time.Time
	if c.opts.HeartbeatInterval > 0 {
		ticker := c.opts.Clock.NewTicker(c.opts.HeartbeatInterval)
		defer ticker.Stop()
		beat = ticker.Chan()
		if err := c.Heartbeat(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-beat:
			if err := c.Heartbeat(); err != nil {
				return err
			}
		default:
		}

		f, ok, err := c.bus.Receive(c.opts.PollSlice)
		if err != nil {
			if errors.Is(err, can.ErrClosed) {
				return nil
			}
			return fmt.Errorf("cluster receive: %w", err)
		}
		if ok {
			if err := c.handle(f); err != nil {
				return err
			}
		}
	}
}

// Heartbeat sends one host ping and one display response.
func (c *Cluster) Heartbeat() error {
	if err := c.bus.Send(can.Frame{ID: c.opts.HostID, Data: protocol.HeartbeatPingFrame()}); err != nil {
		return err
	}
	return c.bus.Send(can.Frame{ID: c.opts.DisplayID, Data: protocol.HeartbeatRespFrame()})
}

// HostData sends a payload as the host controller would, starting at seq.
// The engine's tracker follows these frames.
func (c *Cluster) HostData(payload []byte, seq uint8) error {
	for _, data := range protocol.Encode(payload, seq) {
		if err := c.bus.Send(can.Frame{ID: c.opts.HostID, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cluster) handle(f can.Frame) error {
	if f.ID != c.opts.HostID || len(f.Data) == 0 {
		return nil
	}
	h := protocol.Decode(f.Data)

	c.mu.Lock()
	if h.Type == protocol.TypeAck {
		c.hostAcks = append(c.hostAcks, h.Seq)
		c.mu.Unlock()
		return nil
	}
	if !h.IsData() {
		c.mu.Unlock()
		return nil
	}
	payload, complete := c.rx.Feed(f.Data)
	if !complete {
		c.mu.Unlock()
		return nil
	}
	drop := c.dropAcks > 0
	if drop {
		c.dropAcks--
	}
	c.payloads = append(c.payloads, append([]byte(nil), payload...))
	answer := c.apply(payload)
	c.mu.Unlock()

	if drop {
		logging.Debug("Simulated display dropping ack", zap.Uint8("seq", h.Seq))
		return nil
	}
	ack := can.Frame{ID: c.opts.DisplayID, Data: protocol.AckFrame(protocol.NextSeq(h.Seq))}
	if err := c.bus.Send(ack); err != nil {
		return err
	}
	if answer != nil {
		return c.bus.Send(can.Frame{ID: c.opts.DisplayID, Data: answer})
	}
	return nil
}

// apply updates the display state and returns the frame to send after the
// ack, if any. c.mu must be held.
func (c *Cluster) apply(payload []byte) []byte {
	switch {
	case len(payload) == 3 && payload[0] == protocol.OpClaim:
		c.claimed[protocol.Zone(payload[2])] = true
	case len(payload) == 3 && payload[0] == protocol.OpRelease:
		zone := protocol.Zone(payload[2])
		c.claimed[zone] = false
		if c.opts.SilentRelease {
			return nil
		}
		frame := protocol.EncodeChunk(protocol.TypeDataEnd, c.seq, []byte{ReleaseAnswer, 0x01, byte(zone)})
		c.seq = protocol.NextSeq(c.seq)
		return frame
	case len(payload) >= 4 && payload[0] == protocol.OpWriteText:
		c.lines[int(payload[2])] = string(payload[4:])
	default:
		logging.Debug("Simulated display ignoring payload", zap.String("payload", protocol.DescribePayload(payload)))
	}
	return nil
}

// Payloads returns every complete payload received from the host id, in order.
func (c *Cluster) Payloads() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.payloads))
	copy(out, c.payloads)
	return out
}

// HostAcks returns the sequence numbers of acks received on the host id.
func (c *Cluster) HostAcks() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.hostAcks...)
}

// Claimed reports whether zone is currently claimed.
func (c *Cluster) Claimed(zone protocol.Zone) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claimed[zone]
}

// Line returns the text shown on line.
func (c *Cluster) Line(line int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.lines[line]
	return text, ok
}

// Render draws the display state, one line per written line id.
func (c *Cluster) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.lines))
	for id := range c.lines {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%02X | %s\n", id, c.lines[id])
	}
	return b.String()
}
