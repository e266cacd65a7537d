package slcan

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"

	"github.com/muurk/fisinject/internal/can"
)

// fakePort is an in-memory serial port. Reads return queued chunks one at a
// time and an empty read once the queue is exhausted.
type fakePort struct {
	mu      sync.Mutex
	written bytes.Buffer
	reads   [][]byte
	closed  bool
	timeout time.Duration
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reads) == 0 {
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func openFake(t *testing.T, port *fakePort) *Bus {
	t.Helper()
	bus, err := Open(can.Config{Interface: DriverName, Channel: "/dev/ttyACM0", Bitrate: 500000},
		func(path string, mode *serial.Mode) (Port, error) {
			if mode.BaudRate != DefaultBaudRate {
				t.Errorf("baud rate = %d, want %d", mode.BaudRate, DefaultBaudRate)
			}
			return port, nil
		})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return bus
}

func TestOpenSendsSetupCommands(t *testing.T) {
	port := &fakePort{}
	openFake(t, port)

	if got, want := port.written.String(), "C\rS6\rO\r"; got != want {
		t.Errorf("setup commands = %q, want %q", got, want)
	}
}

func TestOpenRejectsUnknownBitrate(t *testing.T) {
	_, err := Open(can.Config{Channel: "/dev/ttyACM0", Bitrate: 42},
		func(string, *serial.Mode) (Port, error) {
			t.Fatal("factory should not be called")
			return nil, nil
		})
	if err == nil {
		t.Fatal("Open() should fail for unsupported bitrate")
	}
}

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame can.Frame
		want  string
	}{
		{"claim top", can.Frame{ID: 0x490, Data: []byte{0x10, 0x36, 0x01, 0x01}}, "t490410360101\r"},
		{"ack", can.Frame{ID: 0x490, Data: []byte{0xB5}}, "t4901B5\r"},
		{"empty", can.Frame{ID: 0x7FF}, "t7FF0\r"},
		{"extended", can.Frame{ID: 0x18DAF110, Data: []byte{0xA3}}, "T18DAF1101A3\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFrame(tt.frame)
			if err != nil {
				t.Fatalf("EncodeFrame() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodeFrame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantID  uint32
		want    []byte
		wantErr bool
	}{
		{name: "heartbeat", line: "t4911A3", wantID: 0x491, want: []byte{0xA3}},
		{name: "heartbeat response", line: "t4912A10F", wantID: 0x491, want: []byte{0xA1, 0x0F}},
		{name: "with timestamp", line: "t4901B51234", wantID: 0x490, want: []byte{0xB5}},
		{name: "extended", line: "T18DAF1102AABB", wantID: 0x18DAF110, want: []byte{0xAA, 0xBB}},
		{name: "lowercase hex", line: "t4911b3", wantID: 0x491, want: []byte{0xB3}},
		{name: "remote frame", line: "r4910", wantErr: true},
		{name: "truncated", line: "t49", wantErr: true},
		{name: "dlc too large", line: "t4919AA", wantErr: true},
		{name: "missing data", line: "t4912AA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFrame(%q) expected error, got %v", tt.line, f)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame(%q) error = %v", tt.line, err)
			}
			if f.ID != tt.wantID {
				t.Errorf("ID = 0x%X, want 0x%X", f.ID, tt.wantID)
			}
			if !bytes.Equal(f.Data, tt.want) {
				t.Errorf("Data = % X, want % X", f.Data, tt.want)
			}
		})
	}
}

func TestReceiveSplitsLinesAcrossReads(t *testing.T) {
	port := &fakePort{}
	bus := openFake(t, port)

	port.reads = [][]byte{
		[]byte("t4911A"),
		[]byte("3\rz\rt49"),
		[]byte("01B5\r\a"),
	}

	f, ok, err := bus.Receive(10 * time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Receive() = ok %v, err %v", ok, err)
	}
	if f.ID != 0x491 || !bytes.Equal(f.Data, []byte{0xA3}) {
		t.Errorf("first frame = %v", f)
	}

	f, ok, err = bus.Receive(10 * time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Receive() = ok %v, err %v", ok, err)
	}
	if f.ID != 0x490 || !bytes.Equal(f.Data, []byte{0xB5}) {
		t.Errorf("second frame = %v", f)
	}

	_, ok, err = bus.Receive(0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if ok {
		t.Error("Receive() should report no frame once drained")
	}
}

func TestSendAndClose(t *testing.T) {
	port := &fakePort{}
	bus := openFake(t, port)
	port.written.Reset()

	if err := bus.Send(can.Frame{ID: 0x490, Data: []byte{0x10, 0x32, 0x01, 0x02}}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got, want := port.written.String(), "t490410320102\r"; got != want {
		t.Errorf("written = %q, want %q", got, want)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !port.closed {
		t.Error("port should be closed")
	}
	err := bus.Send(can.Frame{ID: 0x490})
	if !errors.Is(err, can.ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
}
