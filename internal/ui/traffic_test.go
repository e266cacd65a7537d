package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/protocol"
)

func event(dir engine.Direction, id uint32, synced bool, seq uint8, data ...byte) engine.TrafficEvent {
	return engine.TrafficEvent{
		Direction: dir,
		Frame:     can.Frame{ID: id, Data: data},
		Header:    protocol.Decode(data),
		Synced:    synced,
		Seq:       seq,
	}
}

func TestFormatTraffic(t *testing.T) {
	tests := []struct {
		name string
		ev   engine.TrafficEvent
		want string
	}{
		{
			name: "host data applied",
			ev:   event(engine.FromHost, 0x490, true, 0, 0x2F, 0x36, 0x01, 0x01),
			want: "HOST->DISP 0x490: 2F 36 01 01          | DATA BODY (Seq 15)   [SEQ->0]",
		},
		{
			name: "display data ignored",
			ev:   event(engine.FromDisplay, 0x491, false, 4, 0x2A, 0x3B, 0x01, 0x02),
			want: "DISP->HOST 0x491: 2A 3B 01 02          | DATA BODY (Seq 10)   [SEQ IGN]",
		},
		{
			name: "heartbeat has no note",
			ev:   event(engine.FromHost, 0x490, false, 4, 0xA3),
			want: "HOST->DISP 0x490: A3                   | HEARTBEAT (PING)",
		},
		{
			name: "injected ack",
			ev:   event(engine.Injected, 0x490, false, 4, 0xB3),
			want: "INJECTED 0x490: B3 | ACK (Seq 3) >>>",
		},
		{
			name: "injected data",
			ev:   event(engine.Injected, 0x490, false, 6, 0x15, 0x36, 0x01, 0x02),
			want: "INJECTED 0x490: 15 36 01 02 | DATA END (Seq 5) >>>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTraffic(tt.ev))
			assert.Contains(t, StyleTraffic(tt.ev), tt.ev.Direction.String())
		})
	}
}

func TestTrafficPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewTrafficPrinter(&buf, false)

	p.OnTraffic(event(engine.FromHost, 0x490, false, 0, 0xA3))
	assert.Empty(t, buf.String())

	p.SetEnabled(true)
	p.OnTraffic(event(engine.FromHost, 0x490, false, 0, 0xA3))
	assert.Equal(t, "HOST->DISP 0x490: A3                   | HEARTBEAT (PING)\n", buf.String())
}
