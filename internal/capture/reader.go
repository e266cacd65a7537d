package capture

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/fisinject/internal/can"
)

// Record is one captured frame.
type Record struct {
	// At is the capture time, zero when the log carries no timestamps.
	At        time.Time
	Interface string
	Frame     can.Frame
}

// ParseError reports a malformed log line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Read parses a whole candump log. Blank lines, lines starting with '#' and
// remote frames are skipped.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, ok, err := ParseLine(text)
		if err != nil {
			return nil, &ParseError{Line: n, Text: text, Err: err}
		}
		if ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	return records, nil
}

// ParseLine parses one log line. ok is false for remote frames.
func ParseLine(line string) (rec Record, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "(") {
		rec.At, err = parseTimestamp(fields[0])
		if err != nil {
			return Record{}, false, err
		}
		fields = fields[1:]
	}
	if len(fields) < 2 {
		return Record{}, false, fmt.Errorf("expected interface and frame")
	}
	rec.Interface = fields[0]

	var id uint32
	var data []byte
	if strings.Contains(fields[1], "#") {
		id, data, ok, err = parseCompact(fields[1])
	} else {
		id, data, ok, err = parseColumns(fields[1:])
	}
	if err != nil || !ok {
		return Record{}, false, err
	}

	rec.Frame, err = can.NewFrame(id, data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// parseTimestamp reads "(seconds.micros)".
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	secs, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nsec, err = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q", s)
		}
	}
	return time.Unix(sec, nsec), nil
}

// parseCompact reads "490#A30102" and "490#R".
func parseCompact(s string) (id uint32, data []byte, ok bool, err error) {
	idText, dataText, _ := strings.Cut(s, "#")
	id, err = parseID(idText)
	if err != nil {
		return 0, nil, false, err
	}
	if strings.HasPrefix(dataText, "R") {
		return 0, nil, false, nil
	}
	dataText = strings.ReplaceAll(dataText, ".", "")
	data, err = hex.DecodeString(dataText)
	if err != nil {
		return 0, nil, false, fmt.Errorf("bad data %q", dataText)
	}
	return id, data, true, nil
}

// parseColumns reads "490 [3] A3 01 02".
func parseColumns(fields []string) (id uint32, data []byte, ok bool, err error) {
	if len(fields) < 2 {
		return 0, nil, false, fmt.Errorf("expected id and length")
	}
	id, err = parseID(fields[0])
	if err != nil {
		return 0, nil, false, err
	}
	dlcText := strings.TrimSuffix(strings.TrimPrefix(fields[1], "["), "]")
	dlc, err := strconv.Atoi(dlcText)
	if err != nil {
		return 0, nil, false, fmt.Errorf("bad length %q", fields[1])
	}
	rest := fields[2:]
	if len(rest) > 0 && strings.HasPrefix(rest[0], "remote") {
		return 0, nil, false, nil
	}
	if len(rest) != dlc {
		return 0, nil, false, fmt.Errorf("length %d but %d data bytes", dlc, len(rest))
	}
	data, err = hex.DecodeString(strings.Join(rest, ""))
	if err != nil {
		return 0, nil, false, fmt.Errorf("bad data %q", strings.Join(rest, " "))
	}
	return id, data, true, nil
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return uint32(v), nil
}
