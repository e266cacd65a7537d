package protocol

// Charmap translates text into the display's character set. Runes without
// an entry pass through when they fit in a byte and become Fallback otherwise.
type Charmap struct {
	Overrides map[rune]byte
	Fallback  byte
}

// DefaultCharmap passes printable ASCII through unchanged.
func DefaultCharmap() *Charmap {
	return &Charmap{Overrides: map[rune]byte{}, Fallback: '?'}
}

// Encode converts text to display bytes.
func (c *Charmap) Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if c != nil {
			if b, ok := c.Overrides[r]; ok {
				out = append(out, b)
				continue
			}
		}
		if r >= 0 && r <= 0xFF {
			out = append(out, byte(r))
			continue
		}
		fallback := byte('?')
		if c != nil && c.Fallback != 0 {
			fallback = c.Fallback
		}
		out = append(out, fallback)
	}
	return out
}
