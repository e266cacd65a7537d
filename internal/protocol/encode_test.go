package protocol

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func TestEncodeTenBytesFromSeqThree(t *testing.T) {
	payload := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	frames := Encode(payload, 3)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	want0 := []byte{0x23, 0, 1, 2, 3, 4, 5, 6}
	want1 := []byte{0x14, 7, 8, 9}
	if !bytes.Equal(frames[0], want0) {
		t.Errorf("frame 0 = % X, want % X", frames[0], want0)
	}
	if !bytes.Equal(frames[1], want1) {
		t.Errorf("frame 1 = % X, want % X", frames[1], want1)
	}
}

func TestEncodeSequenceWraps(t *testing.T) {
	frames := Encode(make([]byte, 15), 15)
	wantHeaders := []byte{0x2F, 0x20, 0x11}
	if len(frames) != len(wantHeaders) {
		t.Fatalf("got %d frames, want %d", len(frames), len(wantHeaders))
	}
	for i, want := range wantHeaders {
		if frames[i][0] != want {
			t.Errorf("frame %d header = 0x%02X, want 0x%02X", i, frames[i][0], want)
		}
	}
}

func TestEncodeEmptyPayload(t *testing.T) {
	if frames := Encode(nil, 0); len(frames) != 0 {
		t.Errorf("Encode(nil) = %d frames, want 0", len(frames))
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{1, 7, 8, 15, 16} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(0x41 + i)
		}

		frames := Encode(payload, 6)
		if len(frames) != ChunkCount(n) {
			t.Errorf("len %d: got %d frames, want %d", n, len(frames), ChunkCount(n))
		}

		var r Reassembler
		var got []byte
		var complete bool
		for i, f := range frames {
			if len(f) > 8 {
				t.Fatalf("len %d: frame %d is %d bytes", n, i, len(f))
			}
			got, complete = r.Feed(f)
			if complete != (i == len(frames)-1) {
				t.Fatalf("len %d: frame %d complete = %v", n, i, complete)
			}
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("len %d: round trip = % X, want % X", n, got, payload)
		}
	}
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "payload")
		start := rapid.Uint8Range(0, 15).Draw(t, "start")

		frames := Encode(payload, start)
		var r Reassembler
		var got []byte
		seq := start
		for i, f := range frames {
			h := Decode(f)
			if h.Seq != seq {
				t.Fatalf("frame %d seq = %d, want %d", i, h.Seq, seq)
			}
			last := i == len(frames)-1
			if last && h.Type != TypeDataEnd || !last && h.Type != TypeDataBody {
				t.Fatalf("frame %d type = %v (last=%v)", i, h.Type, last)
			}
			got, _ = r.Feed(f)
			seq = NextSeq(seq)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip = % X, want % X", got, payload)
		}
	})
}

func TestReassemblerIgnoresNonData(t *testing.T) {
	var r Reassembler
	r.Feed([]byte{0x21, 'A', 'B'})
	if _, ok := r.Feed([]byte{0xB2}); ok {
		t.Error("ack should not complete a payload")
	}
	if _, ok := r.Feed([]byte{0xA3}); ok {
		t.Error("heartbeat should not complete a payload")
	}
	if r.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", r.Pending())
	}
	got, ok := r.Feed([]byte{0x12, 'C'})
	if !ok || string(got) != "ABC" {
		t.Errorf("Feed() = %q, %v; want ABC, true", got, ok)
	}
	r.Feed([]byte{0x23, 'X'})
	r.Reset()
	if r.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d", r.Pending())
	}
}

func TestControlFrames(t *testing.T) {
	if got := AckFrame(0x15); !bytes.Equal(got, []byte{0xB5}) {
		t.Errorf("AckFrame(0x15) = % X, want B5", got)
	}
	if Decode(HeartbeatPingFrame()).Type != TypeHeartbeat {
		t.Error("HeartbeatPingFrame does not decode as heartbeat")
	}
	if Decode(HeartbeatRespFrame()).Type != TypeHeartbeatAck {
		t.Error("HeartbeatRespFrame does not decode as heartbeat response")
	}
}
