package engine

import (
	"encoding/json"
	"errors"

	"github.com/muurk/fisinject/internal/protocol"
)

// Zone is a display region.
type Zone = protocol.Zone

// Display zones.
const (
	ZoneTop    = protocol.ZoneTop
	ZoneMiddle = protocol.ZoneMiddle
)

// LineUpdate sets the text of one display line. Empty text clears the line.
type LineUpdate struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Request is one display update. Top is written in the Top zone and Middle
// lines, in order, in the Middle zone. When both are set the Middle session
// runs inside the open Top session.
type Request struct {
	Top    *LineUpdate  `json:"top,omitempty"`
	Middle []LineUpdate `json:"middle,omitempty"`
}

// Empty reports whether the request names no lines at all.
func (r Request) Empty() bool {
	return r.Top == nil && len(r.Middle) == 0
}

// Op names an arbiter step.
type Op string

// Arbiter steps.
const (
	OpClaim      Op = "claim"
	OpWrite      Op = "write"
	OpRelease    Op = "release"
	OpReleaseAck Op = "release_ack"
)

// StepResult is the outcome of one claim, write, release or handshake.
type StepResult struct {
	Op      Op
	Zone    Zone
	Line    int
	OK      bool
	Skipped bool
	Err     error
}

// MarshalJSON renders zones by name and errors as strings.
func (s StepResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Op      Op     `json:"op"`
		Zone    string `json:"zone"`
		Line    *int   `json:"line,omitempty"`
		OK      bool   `json:"ok"`
		Skipped bool   `json:"skipped,omitempty"`
		Error   string `json:"error,omitempty"`
	}{Op: s.Op, Zone: s.Zone.String(), OK: s.OK, Skipped: s.Skipped}
	if s.Op == OpWrite {
		line := s.Line
		out.Line = &line
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

// Result is the outcome of Engine.Apply.
type Result struct {
	// Skipped is set when nothing was transmitted because the bus is not active.
	Skipped bool         `json:"skipped"`
	Steps   []StepResult `json:"steps"`
}

// OK reports whether the request ran and every step succeeded.
func (r Result) OK() bool {
	if r.Skipped {
		return false
	}
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// Err joins the errors of all failed steps.
func (r Result) Err() error {
	if r.Skipped {
		return ErrInactive
	}
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}

// SessionState is the local view of a zone session.
type SessionState int

const (
	Free SessionState = iota
	Claimed
	Releasing
)

func (s SessionState) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case Releasing:
		return "releasing"
	default:
		return "free"
	}
}

// MarshalText renders the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
