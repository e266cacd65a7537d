package protocol

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType Type
		wantSeq  uint8
	}{
		{name: "heartbeat ping", data: []byte{0xA3}, wantType: TypeHeartbeat},
		{name: "heartbeat ping with trailing bytes", data: []byte{0xA3, 0x00, 0x12}, wantType: TypeHeartbeat},
		{name: "heartbeat response", data: []byte{0xA1, 0x0F}, wantType: TypeHeartbeatAck},
		{name: "heartbeat response prefix", data: []byte{0xA1, 0x0F, 0x8A, 0xFF}, wantType: TypeHeartbeatAck},
		{name: "0xA1 without marker", data: []byte{0xA1, 0x00}, wantType: TypeUnknown},
		{name: "lone 0xA1", data: []byte{0xA1}, wantType: TypeUnknown},
		{name: "data end seq 0", data: []byte{0x10, 0x36, 0x01, 0x01}, wantType: TypeDataEnd, wantSeq: 0},
		{name: "data end seq 15", data: []byte{0x1F}, wantType: TypeDataEnd, wantSeq: 15},
		{name: "data body seq 3", data: []byte{0x23, 1, 2, 3, 4, 5, 6, 7}, wantType: TypeDataBody, wantSeq: 3},
		{name: "ack seq 9", data: []byte{0xB9}, wantType: TypeAck, wantSeq: 9},
		{name: "unmatched high nibble", data: []byte{0x3B, 0x01}, wantType: TypeUnknown},
		{name: "empty", data: nil, wantType: TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Decode(tt.data)
			if h.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", h.Type, tt.wantType)
			}
			if h.Seq != tt.wantSeq {
				t.Errorf("Seq = %d, want %d", h.Seq, tt.wantSeq)
			}
		})
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	for b := 0; b <= 0xFF; b++ {
		raw := []byte{byte(b), 0x0F, 0x55}
		first := Decode(raw)
		second := Decode(raw)
		if first != second {
			t.Fatalf("Decode(0x%02X) not idempotent: %+v vs %+v", b, first, second)
		}
	}
}

func TestHeaderString(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{[]byte{0xA3}, "HEARTBEAT (PING)"},
		{[]byte{0xA1, 0x0F}, "HEARTBEAT (RESP)"},
		{[]byte{0x14}, "DATA END (Seq 4)"},
		{[]byte{0x2A}, "DATA BODY (Seq 10)"},
		{[]byte{0xB0}, "ACK (Seq 0)"},
		{[]byte{0x3B}, "UNKNOWN (0x3B)"},
	}
	for _, tt := range tests {
		if got := Decode(tt.data).String(); got != tt.want {
			t.Errorf("Decode(% X).String() = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestNextSeqWraps(t *testing.T) {
	if got := NextSeq(15); got != 0 {
		t.Errorf("NextSeq(15) = %d, want 0", got)
	}
	if got := NextSeq(3); got != 4 {
		t.Errorf("NextSeq(3) = %d, want 4", got)
	}
}
