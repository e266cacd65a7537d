package protocol

import (
	"fmt"
	"strings"
)

// Application opcodes
const (
	OpClaim     = 0x36
	OpRelease   = 0x32
	OpWriteText = 0xE0

	opMarker  = 0x01
	textSep   = 0x00
	textExtra = 2 // line + separator counted by the length byte
)

// MaxTextLen is the longest text a single write can carry.
const MaxTextLen = 0xFF - textExtra

// Zone identifies a display region.
type Zone byte

const (
	ZoneTop    Zone = 0x01
	ZoneMiddle Zone = 0x02
)

func (z Zone) String() string {
	switch z {
	case ZoneTop:
		return "top"
	case ZoneMiddle:
		return "middle"
	default:
		return fmt.Sprintf("zone(0x%02x)", byte(z))
	}
}

// ClaimPayload builds the claim opcode for zone.
func ClaimPayload(z Zone) []byte {
	return []byte{OpClaim, opMarker, byte(z)}
}

// ReleasePayload builds the release opcode for zone.
func ReleasePayload(z Zone) []byte {
	return []byte{OpRelease, opMarker, byte(z)}
}

// WriteTextPayload builds the write opcode for line. chars are already in
// the display's character set; an empty slice clears the line.
func WriteTextPayload(line byte, chars []byte) ([]byte, error) {
	if len(chars) > MaxTextLen {
		return nil, fmt.Errorf("text too long: %d characters (max %d)", len(chars), MaxTextLen)
	}
	payload := make([]byte, 0, 4+len(chars))
	payload = append(payload, OpWriteText, byte(textExtra+len(chars)), line, textSep)
	return append(payload, chars...), nil
}

// DescribePayload renders an application payload for logs and the traffic view.
func DescribePayload(payload []byte) string {
	if len(payload) == 0 {
		return "EMPTY"
	}
	switch {
	case len(payload) == 3 && payload[0] == OpClaim && payload[1] == opMarker:
		return "CLAIM " + strings.ToUpper(Zone(payload[2]).String())
	case len(payload) == 3 && payload[0] == OpRelease && payload[1] == opMarker:
		return "RELEASE " + strings.ToUpper(Zone(payload[2]).String())
	case len(payload) >= 4 && payload[0] == OpWriteText:
		return fmt.Sprintf("WRITE line 0x%02X %q", payload[2], string(payload[4:]))
	default:
		return fmt.Sprintf("OPCODE 0x%02X (%d bytes)", payload[0], len(payload))
	}
}
