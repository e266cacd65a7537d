package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/fisinject/internal/can"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a nop logger when no level is configured")
	}
}

func TestLogFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogFrame("rx", can.Frame{ID: 0x491, Data: []byte{0xB4}}, "ACK (Seq 4)")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["id"] != "0x491" {
		t.Errorf("id field = %v, want 0x491", fields["id"])
	}
	if fields["data"] != "B4" {
		t.Errorf("data field = %v, want B4", fields["data"])
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte{'H', 'I', 0x00, 0xE0}); got != "HI.." {
		t.Errorf("asciiDump() = %q, want %q", got, "HI..")
	}
}
