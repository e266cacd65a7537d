package capture

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/protocol"
)

type logBuilder struct {
	b  strings.Builder
	ms int
}

func (l *logBuilder) add(id uint32, frames ...[]byte) {
	for _, data := range frames {
		l.ms += 10
		fmt.Fprintf(&l.b, "(100.%06d) can0 %03X#%X\n", l.ms*1000, id, data)
	}
}

func sessionCapture(t *testing.T) []Record {
	t.Helper()
	var l logBuilder
	l.add(0x490, protocol.HeartbeatPingFrame())
	l.add(0x491, protocol.HeartbeatRespFrame())
	l.add(0x490, protocol.Encode(protocol.ClaimPayload(protocol.ZoneMiddle), 4)...)
	l.add(0x491, protocol.AckFrame(5))

	write, err := protocol.WriteTextPayload(0x05, []byte("HELLO WORLD"))
	require.NoError(t, err)
	l.add(0x490, protocol.Encode(write, 5)...)

	l.add(0x491, protocol.EncodeChunk(protocol.TypeDataEnd, 7, []byte{0x3B, 0x01, 0x02}))
	l.add(0x123, []byte{0x00})
	l.add(0x491, protocol.AckFrame(8))

	records, err := Read(strings.NewReader(l.b.String()))
	require.NoError(t, err)
	return records
}

func TestAnalyze(t *testing.T) {
	records := sessionCapture(t)
	report := Analyze(records, engine.Options{})

	assert.Equal(t, 10, report.Frames)
	assert.True(t, report.Active)
	assert.Equal(t, uint8(8), report.FinalSeq)
	assert.Equal(t, 90*time.Millisecond, report.Duration())

	assert.Equal(t, uint64(10), report.Stats.Total)
	assert.Equal(t, uint64(9), report.Stats.Watched)
	assert.Equal(t, uint64(1), report.Stats.Other)
	assert.Equal(t, uint64(6), report.Stats.Synced)
	assert.Equal(t, uint64(1), report.Stats.Ignored)

	require.Len(t, report.Payloads, 3)
	assert.Equal(t, "CLAIM MIDDLE", report.Payloads[0].Text)
	assert.Equal(t, engine.FromHost, report.Payloads[0].Direction)
	assert.True(t, time.Unix(100, 30_000_000).Equal(report.Payloads[0].At))

	assert.Equal(t, `WRITE line 0x05 "HELLO WORLD"`, report.Payloads[1].Text)
	assert.Equal(t, uint8(7), report.Payloads[1].Seq)

	assert.Equal(t, engine.FromDisplay, report.Payloads[2].Direction)
	assert.Equal(t, "OPCODE 0x3B (3 bytes)", report.Payloads[2].Text)
}

func TestAnalyzeObservers(t *testing.T) {
	records := sessionCapture(t)

	var events []engine.TrafficEvent
	Analyze(records, engine.Options{
		Observers: []engine.Observer{engine.ObserverFunc(func(ev engine.TrafficEvent) {
			events = append(events, ev)
		})},
	})

	require.Len(t, events, 9)
	assert.False(t, events[0].Synced)
	assert.True(t, events[2].Synced)
	assert.Equal(t, uint8(5), events[2].Seq)
	assert.Equal(t, "[SEQ IGN]", events[7].SyncNote())
}

func TestAnalyzeOtherIDs(t *testing.T) {
	records := sessionCapture(t)
	report := Analyze(records, engine.Options{HostID: 0x100, DisplayID: 0x101})

	assert.False(t, report.Active)
	assert.Equal(t, uint64(0), report.Stats.Watched)
	assert.Empty(t, report.Payloads)
}

func TestAnalyzeWithoutTimestamps(t *testing.T) {
	records, err := Read(strings.NewReader("can0  490   [1]  A3\ncan0  491   [2]  A1 0F\n"))
	require.NoError(t, err)

	report := Analyze(records, engine.Options{})
	assert.True(t, report.Active)
	assert.True(t, report.Start.IsZero())
	assert.Equal(t, time.Duration(0), report.Duration())
}
