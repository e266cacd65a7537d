package capture

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/protocol"
)

// Payload is one reassembled application payload.
type Payload struct {
	At        time.Time        `json:"at"`
	Direction engine.Direction `json:"-"`
	From      string           `json:"from"`
	Seq       uint8            `json:"seq"`
	Data      []byte           `json:"data"`
	Text      string           `json:"text"`
}

// Report summarises a replayed capture.
type Report struct {
	Frames   int          `json:"frames"`
	Start    time.Time    `json:"start,omitzero"`
	End      time.Time    `json:"end,omitzero"`
	Active   bool         `json:"active"`
	FinalSeq uint8        `json:"final_seq"`
	Stats    engine.Stats `json:"stats"`
	Payloads []Payload    `json:"payloads"`
}

// Duration is the time between the first and last timestamped record.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Analyze replays records through a traffic monitor for the ids in opts.
// Observers in opts see every watched frame, stamped with its capture time.
func Analyze(records []Record, opts engine.Options) *Report {
	start := time.Unix(0, 0)
	for _, rec := range records {
		if !rec.At.IsZero() {
			start = rec.At
			break
		}
	}
	clock := clockwork.NewFakeClockAt(start)
	report := &Report{Frames: len(records)}

	reassemblers := map[engine.Direction]*protocol.Reassembler{
		engine.FromHost:    {},
		engine.FromDisplay: {},
	}
	collect := engine.ObserverFunc(func(ev engine.TrafficEvent) {
		r, ok := reassemblers[ev.Direction]
		if !ok {
			return
		}
		payload, complete := r.Feed(ev.Frame.Data)
		if !complete {
			return
		}
		report.Payloads = append(report.Payloads, Payload{
			At:        ev.At,
			Direction: ev.Direction,
			From:      ev.Direction.String(),
			Seq:       ev.Header.Seq,
			Data:      payload,
			Text:      protocol.DescribePayload(payload),
		})
	})
	opts.Clock = clock
	opts.Observers = append([]engine.Observer{collect}, opts.Observers...)
	m := engine.NewReplayMonitor(opts)

	for _, rec := range records {
		if !rec.At.IsZero() {
			if report.Start.IsZero() {
				report.Start = rec.At
			}
			report.End = rec.At
			if d := rec.At.Sub(clock.Now()); d > 0 {
				clock.Advance(d)
			}
		}
		m.Feed(rec.Frame)
	}

	report.Active = m.Active()
	report.FinalSeq = m.Seq()
	report.Stats = m.Stats()
	return report
}
