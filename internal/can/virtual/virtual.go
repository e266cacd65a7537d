// Package virtual provides an in-process CAN hub. Every frame sent on one
// port is delivered to all other ports attached to the same hub, the way a
// physical bus delivers to every node except the transmitter.
package virtual

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/syncutil"
)

// DriverName is the name the hub registers with can.Register.
const DriverName = "virtual"

const queueSize = 1024

var defaultHub = NewHub()

func init() {
	can.Register(DriverName, func(cfg can.Config) (can.Bus, error) {
		name := cfg.Channel
		if name == "" {
			name = "vcan"
		}
		return defaultHub.Attach(name), nil
	})
}

// Default returns the process wide hub used by the registered driver.
func Default() *Hub {
	return defaultHub
}

// Hub connects ports.
type Hub struct {
	mu    syncutil.RWMutex
	ports []*Port
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Attach adds a new port to the hub.
func (h *Hub) Attach(name string) *Port {
	p := &Port{
		hub:   h,
		name:  name,
		queue: make(chan can.Frame, queueSize),
		done:  make(chan struct{}),
	}
	h.mu.Lock()
	h.ports = append(h.ports, p)
	h.mu.Unlock()
	return p
}

func (h *Hub) detach(p *Port) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, other := range h.ports {
		if other == p {
			h.ports = append(h.ports[:i], h.ports[i+1:]...)
			return
		}
	}
}

func (h *Hub) deliver(from *Port, f can.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.ports {
		if p == from {
			continue
		}
		select {
		case p.queue <- f:
		default:
			p.dropped.Add(1)
		}
	}
}

// Port is one node's view of the hub. It implements can.Bus.
type Port struct {
	hub     *Hub
	name    string
	queue   chan can.Frame
	done    chan struct{}
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
	sent    atomic.Uint64

	mu      syncutil.Mutex
	sendErr error
}

// Name returns the name the port was attached with.
func (p *Port) Name() string { return p.name }

// Dropped returns the number of frames discarded because the queue was full.
func (p *Port) Dropped() uint64 { return p.dropped.Load() }

// Sent returns the number of frames successfully sent from this port.
func (p *Port) Sent() uint64 { return p.sent.Load() }

// FailSends makes every following Send return err. Pass nil to recover.
func (p *Port) FailSends(err error) {
	p.mu.Lock()
	p.sendErr = err
	p.mu.Unlock()
}

// Send implements can.Bus.
func (p *Port) Send(f can.Frame) error {
	if p.closed.Load() {
		return p.transportErr("send", can.ErrClosed)
	}
	if err := f.Validate(); err != nil {
		return p.transportErr("send", err)
	}
	p.mu.Lock()
	sendErr := p.sendErr
	p.mu.Unlock()
	if sendErr != nil {
		return p.transportErr("send", sendErr)
	}

	f.Data = append([]byte(nil), f.Data...)
	p.hub.deliver(p, f)
	p.sent.Add(1)
	return nil
}

// Receive implements can.Bus.
func (p *Port) Receive(timeout time.Duration) (can.Frame, bool, error) {
	if p.closed.Load() {
		return can.Frame{}, false, p.transportErr("receive", can.ErrClosed)
	}

	if timeout <= 0 {
		select {
		case f := <-p.queue:
			return f, true, nil
		default:
			return can.Frame{}, false, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-p.queue:
		return f, true, nil
	case <-timer.C:
		return can.Frame{}, false, nil
	case <-p.done:
		return can.Frame{}, false, p.transportErr("receive", can.ErrClosed)
	}
}

// Close implements can.Bus.
func (p *Port) Close() error {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.done)
		p.hub.detach(p)
	})
	return nil
}

func (p *Port) transportErr(op string, err error) error {
	return &can.TransportError{Op: op, Interface: DriverName, Channel: p.name, Err: err}
}

// IsClosed reports whether err means the port was closed.
func IsClosed(err error) bool {
	return errors.Is(err, can.ErrClosed)
}
