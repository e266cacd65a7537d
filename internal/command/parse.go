package command

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/logging"
)

// LineUpdate is re-exported for callers that only deal with input.
type LineUpdate = engine.LineUpdate

// Line ids with a fixed zone.
const (
	TopLine = 0x01
)

// ClearMarker is the text that clears a line.
const ClearMarker = "."

// MalformedInputError is returned for input that does not describe any
// display update. Nothing is sent for such input.
type MalformedInputError struct {
	Input  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %q: %s", e.Input, e.Reason)
}

// ZoneOf returns the zone line belongs to.
func ZoneOf(line int) (engine.Zone, bool) {
	switch line {
	case TopLine:
		return engine.ZoneTop, true
	case 0x00, 0x05, 0x06, 0x07, 0x08, 0x09:
		return engine.ZoneMiddle, true
	default:
		return 0, false
	}
}

// Classify sorts tokens into a request. The last Top token wins; Middle
// tokens keep their input order. Tokens for lines outside both zones are
// returned as ignored.
func Classify(tokens []Token) (req engine.Request, ignored []Token) {
	for _, tok := range tokens {
		text := strings.TrimSpace(tok.Text)
		if text == ClearMarker {
			text = ""
		}
		u := LineUpdate{Line: tok.Line, Text: text}

		zone, ok := ZoneOf(tok.Line)
		switch {
		case !ok:
			ignored = append(ignored, tok)
		case zone == engine.ZoneTop:
			req.Top = &u
		default:
			req.Middle = append(req.Middle, u)
		}
	}
	return req, ignored
}

// Parse tokenizes and classifies input.
func Parse(input string) (engine.Request, error) {
	tokens := Tokenize(input)
	if len(tokens) == 0 {
		logging.Warn("No valid line tags found", zap.String("input", input))
		return engine.Request{}, &MalformedInputError{Input: input, Reason: "no valid line tags found"}
	}

	req, ignored := Classify(tokens)
	for _, tok := range ignored {
		logging.Warn("Ignoring line outside the Top and Middle zones",
			zap.String("tag", tok.Tag),
			zap.String("text", tok.Text),
		)
	}
	if req.Empty() {
		return req, &MalformedInputError{Input: input, Reason: "no Top or Middle lines"}
	}
	return req, nil
}

// Format renders req back into input syntax, Top first.
func Format(req engine.Request) string {
	var parts []string
	add := func(u LineUpdate) {
		text := u.Text
		if text == "" {
			text = ClearMarker
		}
		parts = append(parts, fmt.Sprintf("%02X %s", u.Line, text))
	}
	if req.Top != nil {
		add(*req.Top)
	}
	for _, u := range req.Middle {
		add(u)
	}
	return strings.Join(parts, " ")
}
