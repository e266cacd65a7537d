package can

import (
	"errors"
	"testing"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		name    string
		id      uint32
		data    []byte
		wantErr error
	}{
		{name: "empty data", id: 0x490, data: nil},
		{name: "eight bytes", id: 0x491, data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "extended id", id: 0x18DAF110, data: []byte{0x01}},
		{name: "nine bytes", id: 0x490, data: make([]byte, 9), wantErr: ErrInvalidLen},
		{name: "id out of range", id: 0x20000000, data: []byte{0x01}, wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFrame(tt.id, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewFrame() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFrame() unexpected error: %v", err)
			}
			if f.ID != tt.id {
				t.Errorf("ID = 0x%X, want 0x%X", f.ID, tt.id)
			}
			if len(f.Data) != len(tt.data) {
				t.Errorf("len(Data) = %d, want %d", len(f.Data), len(tt.data))
			}
		})
	}
}

func TestNewFrameCopiesData(t *testing.T) {
	data := []byte{0x10, 0x36}
	f, err := NewFrame(0x490, data)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	data[0] = 0xFF
	if f.Data[0] != 0x10 {
		t.Errorf("frame data changed with caller slice: 0x%02X", f.Data[0])
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{ID: 0x490, Data: []byte{0x20, 0x36, 0x01, 0xab}}
	if got, want := f.Hex(), "20 36 01 AB"; got != want {
		t.Errorf("Hex() = %q, want %q", got, want)
	}
	if got, want := f.String(), "0x490 [4] 20 36 01 AB"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if (Frame{ID: 0x490}).Extended() {
		t.Error("0x490 should be a standard id")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(Config{Interface: "does-not-exist", Channel: "x"})
	if err == nil {
		t.Fatal("Open() should fail for unknown driver")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Open() error type = %T, want *TransportError", err)
	}
	if te.Op != "open" {
		t.Errorf("Op = %q, want open", te.Op)
	}
}

func TestOpenWrapsDriverError(t *testing.T) {
	cause := errors.New("adapter busy")
	Register("test-failing", func(cfg Config) (Bus, error) { return nil, cause })

	_, err := Open(Config{Interface: "test-failing", Channel: "ch0"})
	if !errors.Is(err, cause) {
		t.Fatalf("Open() error = %v, want wrapping %v", err, cause)
	}
	if !IsTransportError(err) {
		t.Errorf("Open() error should be a TransportError")
	}
}
