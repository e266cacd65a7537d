//go:build linux

package socketcan

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/muurk/fisinject/internal/can"
)

func init() {
	can.Register(DriverName, func(cfg can.Config) (can.Bus, error) {
		return Open(cfg.Channel)
	})
}

// Bus is a bound raw CAN socket. It implements can.Bus.
type Bus struct {
	fd      int
	channel string

	mu     sync.Mutex
	closed bool
}

// Open binds a raw CAN socket to the named interface. The bitrate is a
// property of the interface and must be configured with ip-link beforehand.
func Open(ifname string) (*Bus, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("failed to find interface: %w", err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("failed to create CAN socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to bind CAN socket: %w", err)
	}

	return &Bus{fd: fd, channel: ifname}, nil
}

// Send implements can.Bus.
func (b *Bus) Send(f can.Frame) error {
	buf, err := marshalFrame(f)
	if err != nil {
		return b.transportErr("send", err)
	}
	if b.isClosed() {
		return b.transportErr("send", can.ErrClosed)
	}
	if _, err := unix.Write(b.fd, buf); err != nil {
		return b.transportErr("send", err)
	}
	return nil
}

// Receive implements can.Bus. Remote and error frames are skipped.
func (b *Bus) Receive(timeout time.Duration) (can.Frame, bool, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, frameSize)
	for {
		if b.isClosed() {
			return can.Frame{}, false, b.transportErr("receive", can.ErrClosed)
		}

		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		ms := int((remaining + time.Millisecond - 1) / time.Millisecond)
		fds := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return can.Frame{}, false, b.transportErr("receive", err)
		}
		if n == 0 {
			return can.Frame{}, false, nil
		}

		if _, err := unix.Read(b.fd, buf); err != nil {
			return can.Frame{}, false, b.transportErr("receive", err)
		}
		f, ok, err := unmarshalFrame(buf)
		if err != nil {
			return can.Frame{}, false, b.transportErr("receive", err)
		}
		if ok {
			return f, true, nil
		}
		if remaining == 0 {
			return can.Frame{}, false, nil
		}
	}
}

// Close implements can.Bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := unix.Close(b.fd); err != nil {
		return b.transportErr("close", err)
	}
	return nil
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bus) transportErr(op string, err error) error {
	return &can.TransportError{Op: op, Interface: DriverName, Channel: b.channel, Err: err}
}
