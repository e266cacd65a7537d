package protocol

// MaxChunk is the number of payload bytes that fit behind the header byte.
const MaxChunk = 7

// Encode segments payload into frame data starting at startSeq. Every chunk
// but the last is a continuation frame. An empty payload yields no frames.
func Encode(payload []byte, startSeq uint8) [][]byte {
	if len(payload) == 0 {
		return nil
	}

	frames := make([][]byte, 0, ChunkCount(len(payload)))
	seq := startSeq % SeqModulus
	for offset := 0; offset < len(payload); offset += MaxChunk {
		end := offset + MaxChunk
		typ := TypeDataBody
		if end >= len(payload) {
			end = len(payload)
			typ = TypeDataEnd
		}
		frames = append(frames, EncodeChunk(typ, seq, payload[offset:end]))
		seq = NextSeq(seq)
	}
	return frames
}

// ChunkCount returns the number of frames Encode produces for n payload bytes.
func ChunkCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + MaxChunk - 1) / MaxChunk
}

// EncodeChunk builds one data frame. typ must be TypeDataBody or TypeDataEnd;
// anything else is encoded as a final frame.
func EncodeChunk(typ Type, seq uint8, chunk []byte) []byte {
	mask := byte(MaskDataEnd)
	if typ == TypeDataBody {
		mask = MaskDataBody
	}
	out := make([]byte, 0, 1+len(chunk))
	out = append(out, mask|(seq&seqMask))
	return append(out, chunk...)
}

// AckFrame builds an acknowledgment frame for seq.
func AckFrame(seq uint8) []byte {
	return []byte{MaskAck | (seq & seqMask)}
}

// HeartbeatPingFrame builds a heartbeat ping.
func HeartbeatPingFrame() []byte {
	return []byte{HeartbeatPing}
}

// HeartbeatRespFrame builds a heartbeat response.
func HeartbeatRespFrame() []byte {
	return []byte{HeartbeatResp, HeartbeatMark}
}
