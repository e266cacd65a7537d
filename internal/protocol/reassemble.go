package protocol

// Reassembler joins the chunks of consecutive data frames back into payloads.
// It does not check sequence continuity; the sender side of this protocol
// only acknowledges the final frame.
type Reassembler struct {
	buf []byte
}

// Feed adds one frame. It returns the complete payload when data is a final
// frame. Non-data frames are ignored.
func (r *Reassembler) Feed(data []byte) (payload []byte, complete bool) {
	h := Decode(data)
	if !h.IsData() {
		return nil, false
	}
	r.buf = append(r.buf, data[1:]...)
	if h.Type != TypeDataEnd {
		return nil, false
	}
	payload = r.buf
	r.buf = nil
	return payload, true
}

// Pending returns the number of buffered bytes of an incomplete payload.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}

// Reset drops any partially assembled payload.
func (r *Reassembler) Reset() {
	r.buf = nil
}
