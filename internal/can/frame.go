package can

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Frame limits for classical CAN.
const (
	MaxDataLen = 8
	MaxStdID   = 0x7FF
	MaxExtID   = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("can: invalid identifier")
	ErrInvalidLen = errors.New("can: invalid data length")
)

// Frame is one addressed CAN data frame. Frames are treated as immutable
// once they have been sent or received.
type Frame struct {
	ID   uint32 // 11-bit standard or 29-bit extended identifier
	Data []byte // 0..8 bytes
}

// NewFrame copies data into a new validated frame.
func NewFrame(id uint32, data []byte) (Frame, error) {
	f := Frame{ID: id, Data: append([]byte(nil), data...)}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate returns an error if the frame cannot be put on the bus.
func (f Frame) Validate() error {
	if len(f.Data) > MaxDataLen {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLen, len(f.Data))
	}
	if f.ID > MaxExtID {
		return fmt.Errorf("%w: 0x%X", ErrInvalidID, f.ID)
	}
	return nil
}

// Extended reports whether the identifier needs the 29-bit format.
func (f Frame) Extended() bool {
	return f.ID > MaxStdID
}

// Hex returns the data bytes as space separated upper-case hex.
func (f Frame) Hex() string {
	if len(f.Data) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(splitPairs(hex.EncodeToString(f.Data)), " "))
}

func (f Frame) String() string {
	return fmt.Sprintf("0x%03X [%d] %s", f.ID, len(f.Data), f.Hex())
}

func splitPairs(s string) []string {
	out := make([]string, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		out = append(out, s[i:i+2])
	}
	return out
}
