// Package socketcan drives Linux SocketCAN network interfaces (can0, vcan0)
// through raw CAN sockets.
package socketcan

import (
	"encoding/binary"
	"fmt"

	"github.com/muurk/fisinject/internal/can"
)

// DriverName is the name the driver registers with can.Register.
const DriverName = "socketcan"

// frameSize is sizeof(struct can_frame) for classical CAN.
const frameSize = 16

const (
	effFlag = 0x80000000
	rtrFlag = 0x40000000
	errFlag = 0x20000000
	effMask = 0x1FFFFFFF
	stdMask = 0x7FF
)

// marshalFrame encodes a frame in the kernel's struct can_frame layout:
//
//	0..3  can_id (little-endian, EFF/RTR/ERR flags in the top bits)
//	4     can_dlc
//	5..7  padding
//	8..15 data
func marshalFrame(f can.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended() {
		id |= effFlag
	}
	buf := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = byte(len(f.Data))
	copy(buf[8:], f.Data)
	return buf, nil
}

// unmarshalFrame decodes a struct can_frame. Remote and error frames are
// reported with ok=false.
func unmarshalFrame(buf []byte) (f can.Frame, ok bool, err error) {
	if len(buf) < frameSize {
		return can.Frame{}, false, fmt.Errorf("short can_frame: %d bytes", len(buf))
	}
	raw := binary.LittleEndian.Uint32(buf[0:4])
	if raw&(rtrFlag|errFlag) != 0 {
		return can.Frame{}, false, nil
	}
	id := raw & stdMask
	if raw&effFlag != 0 {
		id = raw & effMask
	}
	dlc := int(buf[4])
	if dlc > can.MaxDataLen {
		return can.Frame{}, false, fmt.Errorf("%w: dlc %d", can.ErrInvalidLen, dlc)
	}
	f, err = can.NewFrame(id, buf[8:8+dlc])
	if err != nil {
		return can.Frame{}, false, err
	}
	return f, true, nil
}
