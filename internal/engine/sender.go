package engine

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
)

// Sender transmits payloads as transactions on the host controller id.
type Sender struct {
	bus       can.Bus
	tracker   *Tracker
	monitor   *Monitor
	clock     clockwork.Clock
	hostID    uint32
	displayID uint32
	ackWindow time.Duration
	observers observers
}

// NewSender creates a sender. opts must already carry defaults.
func NewSender(bus can.Bus, tracker *Tracker, monitor *Monitor, opts Options) *Sender {
	return &Sender{
		bus:       bus,
		tracker:   tracker,
		monitor:   monitor,
		clock:     opts.Clock,
		hostID:    opts.HostID,
		displayID: opts.DisplayID,
		ackWindow: opts.AckWindow,
		observers: opts.Observers,
	}
}

// Send transmits payload and reports whether the display controller
// acknowledged the final frame.
func (s *Sender) Send(payload []byte) bool {
	return s.Transmit(payload) == nil
}

// Transmit is Send with the failure reason: a transport error, or
// ErrProtocolTimeout when everything went out but no ack came back.
//
// Each chunk takes the tracker's current sequence, and the tracker advances
// right after the chunk is handed to the bus. Only the final frame is
// acknowledged by the peer, so intermediate chunks are not waited on.
func (s *Sender) Transmit(payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	logging.LogRawBytes("Transaction start", payload)
	logging.Debug("Injection start", zap.Uint8("seq", s.tracker.Current()))

	for offset := 0; offset < len(payload); offset += protocol.MaxChunk {
		end := offset + protocol.MaxChunk
		typ := protocol.TypeDataBody
		if end >= len(payload) {
			end = len(payload)
			typ = protocol.TypeDataEnd
		}

		seq := s.tracker.Current()
		f := can.Frame{ID: s.hostID, Data: protocol.EncodeChunk(typ, seq, payload[offset:end])}
		if err := s.bus.Send(f); err != nil {
			logging.Error("CAN send failed", zap.Uint8("seq", seq), zap.Error(err))
			if can.IsTransportError(err) {
				return err
			}
			return fmt.Errorf("failed to send frame: %w", err)
		}
		s.tracker.Advance()
		s.injected(f, protocol.Decode(f.Data))
	}

	_, acked := s.monitor.PollUntil(s.ackWindow, func(f can.Frame, h protocol.Header) bool {
		return f.ID == s.displayID && h.Type == protocol.TypeAck
	})
	if !acked {
		logging.Debug("No ack for transaction", zap.Duration("window", s.ackWindow))
		return fmt.Errorf("no ack within %s: %w", s.ackWindow, ErrProtocolTimeout)
	}
	return nil
}

// SendAck transmits an acknowledgment for seq on the host controller id.
func (s *Sender) SendAck(seq uint8) error {
	f := can.Frame{ID: s.hostID, Data: protocol.AckFrame(seq)}
	if err := s.bus.Send(f); err != nil {
		logging.Error("Failed to send ACK", zap.Uint8("seq", seq), zap.Error(err))
		return err
	}
	s.injected(f, protocol.Decode(f.Data))
	return nil
}

func (s *Sender) injected(f can.Frame, h protocol.Header) {
	logging.LogFrame(Injected.String(), f, h.String())
	s.observers.traffic(TrafficEvent{
		At:        s.clock.Now(),
		Direction: Injected,
		Frame:     f,
		Header:    h,
		Seq:       s.tracker.Current(),
	})
}
