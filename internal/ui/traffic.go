package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/muurk/fisinject/internal/engine"
)

// FormatTraffic renders ev as one traffic line:
//
//	HOST->DISP 0x490: 2F 36 01 01          | DATA BODY (Seq 15)   [SEQ->0]
//	INJECTED 0x490: B3 | ACK (Seq 3) >>>
func FormatTraffic(ev engine.TrafficEvent) string {
	label := ev.Direction.String()
	data := ev.Frame.Hex()

	if ev.Direction == engine.Injected {
		return fmt.Sprintf("%s 0x%03X: %s | %s >>>", label, ev.Frame.ID, data, ev.Header)
	}
	line := fmt.Sprintf("%s 0x%03X: %-20s | %-20s %s", label, ev.Frame.ID, data, ev.Header, ev.SyncNote())
	return strings.TrimRight(line, " ")
}

// StyleTraffic is FormatTraffic with the direction label and sync note
// colored.
func StyleTraffic(ev engine.TrafficEvent) string {
	line := FormatTraffic(ev)
	label := ev.Direction.String()

	labelStyle := HostLabelStyle
	switch ev.Direction {
	case engine.FromDisplay:
		labelStyle = DisplayLabelStyle
	case engine.Injected:
		labelStyle = InjectedLabelStyle
	}
	line = labelStyle.Render(label) + strings.TrimPrefix(line, label)

	if note := ev.SyncNote(); note != "" {
		noteStyle := SyncNoteStyle
		if !ev.Synced {
			noteStyle = IgnoredNoteStyle
		}
		line = strings.TrimSuffix(line, note) + noteStyle.Render(note)
	}
	return line
}

// TrafficPrinter writes traffic lines to an io.Writer. It is the traffic
// view for non-interactive sessions.
type TrafficPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	enabled atomic.Bool
}

// NewTrafficPrinter creates a printer, initially enabled or not.
func NewTrafficPrinter(out io.Writer, enabled bool) *TrafficPrinter {
	p := &TrafficPrinter{out: out}
	p.enabled.Store(enabled)
	return p
}

// SetEnabled turns printing on or off.
func (p *TrafficPrinter) SetEnabled(on bool) {
	p.enabled.Store(on)
}

// Enabled reports whether lines are printed.
func (p *TrafficPrinter) Enabled() bool {
	return p.enabled.Load()
}

// OnTraffic implements engine.Observer.
func (p *TrafficPrinter) OnTraffic(ev engine.TrafficEvent) {
	if !p.enabled.Load() {
		return
	}
	p.Println(FormatTraffic(ev))
}

// Println writes one line, serialized with traffic output.
func (p *TrafficPrinter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, line)
}
