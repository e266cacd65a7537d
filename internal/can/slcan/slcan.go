// Package slcan drives Lawicel/SLCAN compatible USB-CAN adapters (CANable,
// USBtin, CANtact and most cheap CDC-ACM dongles) over a serial port.
//
// Frames travel as ASCII lines terminated by '\r':
//
//	t4903203601\r        standard id 0x490, 3 data bytes 20 36 01
//	T18DAF1101A3\r       extended id, 1 data byte
package slcan

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
)

// DriverName is the name the driver registers with can.Register.
const DriverName = "slcan"

// DefaultBaudRate is the serial speed used for the adapter link. CDC-ACM
// adapters ignore it, FTDI based ones usually expect 115200.
const DefaultBaudRate = 115200

var bitrateCodes = map[int]string{
	10000:   "S0",
	20000:   "S1",
	50000:   "S2",
	100000:  "S3",
	125000:  "S4",
	250000:  "S5",
	500000:  "S6",
	800000:  "S7",
	1000000: "S8",
}

var errBell = errors.New("adapter rejected command")

// Port defines the serial port operations the driver needs (for mocking in tests).
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a serial port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports through go.bug.st/serial.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

func init() {
	can.Register(DriverName, func(cfg can.Config) (can.Bus, error) {
		return Open(cfg, DefaultPortFactory)
	})
}

// Bus is an SLCAN adapter. It implements can.Bus.
type Bus struct {
	port    Port
	channel string

	mu      sync.Mutex
	buf     []byte
	pending []can.Frame
	closed  bool
}

// Open opens the adapter on cfg.Channel, sets the CAN bitrate and opens the
// CAN channel.
func Open(cfg can.Config, factory PortFactory) (*Bus, error) {
	code, ok := bitrateCodes[cfg.Bitrate]
	if !ok {
		return nil, fmt.Errorf("unsupported bitrate %d", cfg.Bitrate)
	}
	if cfg.Channel == "" {
		return nil, errors.New("serial port path is required")
	}

	port, err := factory(cfg.Channel, &serial.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, err
	}

	b := &Bus{port: port, channel: cfg.Channel}

	// Close first in case the adapter was left open by a previous session.
	for _, cmd := range []string{"C", code, "O"} {
		if _, err := port.Write([]byte(cmd + "\r")); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to send %q: %w", cmd, err)
		}
	}

	logging.Info("SLCAN adapter opened",
		zap.String("port", cfg.Channel),
		zap.Int("bitrate", cfg.Bitrate),
	)
	return b, nil
}

// Send implements can.Bus.
func (b *Bus) Send(f can.Frame) error {
	line, err := EncodeFrame(f)
	if err != nil {
		return b.transportErr("send", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.transportErr("send", can.ErrClosed)
	}
	if _, err := b.port.Write([]byte(line)); err != nil {
		return b.transportErr("send", err)
	}
	return nil
}

// Receive implements can.Bus.
func (b *Bus) Receive(timeout time.Duration) (can.Frame, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return can.Frame{}, false, b.transportErr("receive", can.ErrClosed)
	}

	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 256)
	for {
		if len(b.pending) > 0 {
			f := b.pending[0]
			b.pending = b.pending[1:]
			return f, true, nil
		}

		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if err := b.port.SetReadTimeout(remaining); err != nil {
			return can.Frame{}, false, b.transportErr("receive", err)
		}
		n, err := b.port.Read(chunk)
		if err != nil {
			return can.Frame{}, false, b.transportErr("receive", err)
		}
		if n > 0 {
			b.buf = append(b.buf, chunk[:n]...)
			b.drainLines()
			continue
		}
		if remaining == 0 || !time.Now().Before(deadline) {
			return can.Frame{}, false, nil
		}
	}
}

// drainLines moves complete frames from buf into pending.
func (b *Bus) drainLines() {
	for {
		i := bytes.IndexAny(b.buf, "\r\a")
		if i < 0 {
			return
		}
		term := b.buf[i]
		line := string(b.buf[:i])
		b.buf = b.buf[i+1:]

		if term == '\a' {
			logging.Warn("SLCAN adapter signalled an error", zap.String("port", b.channel))
			continue
		}
		if line == "" || line == "z" || line == "Z" {
			continue
		}
		f, err := ParseFrame(line)
		if err != nil {
			logging.Debug("Ignoring SLCAN line", zap.String("line", line), zap.Error(err))
			continue
		}
		b.pending = append(b.pending, f)
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
	_, _ = b.port.Write([]byte("C\r"))
	if err := b.port.Close(); err != nil {
		return b.transportErr("close", err)
	}
	return nil
}

func (b *Bus) transportErr(op string, err error) error {
	return &can.TransportError{Op: op, Interface: DriverName, Channel: b.channel, Err: err}
}

// EncodeFrame renders a frame as an SLCAN transmit command.
func EncodeFrame(f can.Frame) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	var sb strings.Builder
	if f.Extended() {
		fmt.Fprintf(&sb, "T%08X", f.ID)
	} else {
		fmt.Fprintf(&sb, "t%03X", f.ID)
	}
	fmt.Fprintf(&sb, "%d", len(f.Data))
	sb.WriteString(strings.ToUpper(hex.EncodeToString(f.Data)))
	sb.WriteByte('\r')
	return sb.String(), nil
}

// ParseFrame parses one received SLCAN line (without the trailing '\r').
// A trailing 4 digit timestamp, if the adapter adds one, is ignored.
func ParseFrame(line string) (can.Frame, error) {
	if len(line) < 1 {
		return can.Frame{}, errors.New("empty line")
	}

	var idLen int
	switch line[0] {
	case 't':
		idLen = 3
	case 'T':
		idLen = 8
	default:
		return can.Frame{}, fmt.Errorf("not a data frame: %q", line[:1])
	}
	if len(line) < 1+idLen+1 {
		return can.Frame{}, fmt.Errorf("line too short: %d bytes", len(line))
	}

	id, err := strconv.ParseUint(line[1:1+idLen], 16, 32)
	if err != nil {
		return can.Frame{}, fmt.Errorf("invalid identifier: %w", err)
	}
	dlc := int(line[1+idLen] - '0')
	if dlc < 0 || dlc > can.MaxDataLen {
		return can.Frame{}, fmt.Errorf("%w: dlc %q", can.ErrInvalidLen, line[1+idLen])
	}

	start := 2 + idLen
	if len(line) < start+dlc*2 {
		return can.Frame{}, fmt.Errorf("line too short for %d data bytes", dlc)
	}
	data, err := hex.DecodeString(line[start : start+dlc*2])
	if err != nil {
		return can.Frame{}, fmt.Errorf("invalid data: %w", err)
	}
	return can.NewFrame(uint32(id), data)
}
