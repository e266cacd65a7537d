package engine

import (
	"fmt"
	"time"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/protocol"
)

// Direction says who put a frame on the bus.
type Direction int

const (
	// FromHost is a frame received on the host controller id.
	FromHost Direction = iota
	// FromDisplay is a frame received on the display controller id.
	FromDisplay
	// Injected is a frame this engine transmitted.
	Injected
)

func (d Direction) String() string {
	switch d {
	case FromHost:
		return "HOST->DISP"
	case FromDisplay:
		return "DISP->HOST"
	case Injected:
		return "INJECTED"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// TrafficEvent describes one classified frame.
type TrafficEvent struct {
	At        time.Time
	Direction Direction
	Frame     can.Frame
	Header    protocol.Header

	// Synced is set when the tracker applied the header; Seq is the tracker
	// state after the frame was processed.
	Synced bool
	Seq    uint8
}

// SyncNote returns the sequence annotation shown in the traffic view:
// "[SEQ->n]" when the tracker took the frame, "[SEQ IGN]" for data or ack
// frames it refused, and "" otherwise.
func (ev TrafficEvent) SyncNote() string {
	if ev.Direction == Injected {
		return ""
	}
	if ev.Synced {
		return fmt.Sprintf("[SEQ->%d]", ev.Seq)
	}
	if ev.Header.IsData() || ev.Header.Type == protocol.TypeAck {
		return "[SEQ IGN]"
	}
	return ""
}

// Observer receives every frame the engine classifies or transmits.
// Implementations are called on the engine goroutine and must not block.
type Observer interface {
	OnTraffic(ev TrafficEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev TrafficEvent)

// OnTraffic calls f(ev).
func (f ObserverFunc) OnTraffic(ev TrafficEvent) { f(ev) }

// ResultObserver is implemented by observers that also want the outcome of
// every applied request.
type ResultObserver interface {
	OnResult(req Request, res Result)
}

type observers []Observer

func (os observers) traffic(ev TrafficEvent) {
	for _, o := range os {
		o.OnTraffic(ev)
	}
}

func (os observers) result(req Request, res Result) {
	for _, o := range os {
		if ro, ok := o.(ResultObserver); ok {
			ro.OnResult(req, res)
		}
	}
}

func idString(id uint32) string {
	return fmt.Sprintf("0x%03X", id)
}
