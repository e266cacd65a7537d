package protocol

import "fmt"

// Header byte constants
const (
	HeartbeatPing = 0xA3 // heartbeat ping, full first byte
	HeartbeatResp = 0xA1 // heartbeat response, first byte of the prefix
	HeartbeatMark = 0x0F // heartbeat response, second byte of the prefix

	MaskDataEnd  = 0x10 // final data frame of a payload
	MaskDataBody = 0x20 // continuation data frame
	MaskAck      = 0xB0 // acknowledgment

	typeMask = 0xF0
	seqMask  = 0x0F
)

// SeqModulus is the size of the sequence space.
const SeqModulus = 16

// Type is the role of a frame.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeHeartbeat
	TypeHeartbeatAck
	TypeDataBody
	TypeDataEnd
	TypeAck
)

func (t Type) String() string {
	switch t {
	case TypeHeartbeat:
		return "heartbeat"
	case TypeHeartbeatAck:
		return "heartbeat_ack"
	case TypeDataBody:
		return "data_body"
	case TypeDataEnd:
		return "data_end"
	case TypeAck:
		return "ack"
	default:
		return "unknown"
	}
}

// Header is a decoded header byte.
type Header struct {
	Type Type
	Seq  uint8 // 0..15, meaningful for data and ack frames only
	Raw  byte  // first byte as seen on the wire
}

// IsData reports whether the header is a data frame (body or end).
func (h Header) IsData() bool {
	return h.Type == TypeDataBody || h.Type == TypeDataEnd
}

// IsHeartbeat reports whether the header is a heartbeat ping or response.
func (h Header) IsHeartbeat() bool {
	return h.Type == TypeHeartbeat || h.Type == TypeHeartbeatAck
}

// String returns the traffic view description of the header.
func (h Header) String() string {
	switch h.Type {
	case TypeHeartbeat:
		return "HEARTBEAT (PING)"
	case TypeHeartbeatAck:
		return "HEARTBEAT (RESP)"
	case TypeDataBody:
		return fmt.Sprintf("DATA BODY (Seq %d)", h.Seq)
	case TypeDataEnd:
		return fmt.Sprintf("DATA END (Seq %d)", h.Seq)
	case TypeAck:
		return fmt.Sprintf("ACK (Seq %d)", h.Seq)
	default:
		return fmt.Sprintf("UNKNOWN (0x%02X)", h.Raw)
	}
}

// Decode classifies the first byte(s) of a frame. It never fails: frames it
// cannot classify, including empty ones, decode as TypeUnknown.
func Decode(data []byte) Header {
	if len(data) == 0 {
		return Header{Type: TypeUnknown}
	}
	b0 := data[0]
	h := Header{Raw: b0}

	switch {
	case b0 == HeartbeatPing:
		h.Type = TypeHeartbeat
		return h
	case len(data) >= 2 && b0 == HeartbeatResp && data[1] == HeartbeatMark:
		h.Type = TypeHeartbeatAck
		return h
	}

	switch b0 & typeMask {
	case MaskDataBody:
		h.Type = TypeDataBody
	case MaskDataEnd:
		h.Type = TypeDataEnd
	case MaskAck:
		h.Type = TypeAck
	default:
		return Header{Type: TypeUnknown, Raw: b0}
	}
	h.Seq = b0 & seqMask
	return h
}

// NextSeq returns seq+1 modulo 16.
func NextSeq(seq uint8) uint8 {
	return (seq + 1) % SeqModulus
}
