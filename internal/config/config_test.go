package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/fisinject/internal/engine"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "fisinject") {
		t.Errorf("GetConfigDir() = %v, should contain 'fisinject'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME is only used on Linux and other Unix systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "fisinject"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.IDs.Host != 0x490 || cfg.IDs.Display != 0x491 {
		t.Errorf("default ids = 0x%X/0x%X, want 0x490/0x491", cfg.IDs.Host, cfg.IDs.Display)
	}
	if cfg.Timing.AckWindow.D() != 50*time.Millisecond {
		t.Errorf("default ack window = %v, want 50ms", cfg.Timing.AckWindow)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bus.Interface != "socketcan" {
		t.Errorf("Bus.Interface = %q, want socketcan", cfg.Bus.Interface)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
bus:
  interface: slcan
  channel: /dev/ttyACM0
ids:
  host: 0x4A0
timing:
  ack_window: 80ms
  release_attempts: 5
charmap:
  "°": 0xB0
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bus.Interface != "slcan" || cfg.Bus.Channel != "/dev/ttyACM0" {
		t.Errorf("Bus = %+v", cfg.Bus)
	}
	if cfg.Bus.Bitrate != 500000 {
		t.Errorf("Bus.Bitrate = %d, want default 500000", cfg.Bus.Bitrate)
	}
	if cfg.IDs.Host != 0x4A0 || cfg.IDs.Display != 0x491 {
		t.Errorf("IDs = %+v", cfg.IDs)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions() error = %v", err)
	}
	if opts.AckWindow != 80*time.Millisecond {
		t.Errorf("AckWindow = %v, want 80ms", opts.AckWindow)
	}
	if opts.ReleaseAttempts != 5 {
		t.Errorf("ReleaseAttempts = %d, want 5", opts.ReleaseAttempts)
	}
	if opts.Settle != engine.DefaultSettle {
		t.Errorf("Settle = %v, want default", opts.Settle)
	}
	if got := opts.Charmap.Encode("°"); len(got) != 1 || got[0] != 0xB0 {
		t.Errorf("charmap encode = % X, want B0", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad duration", "version: 1\ntiming:\n  settle: soon\n", "invalid duration"},
		{"same ids", "version: 1\nids:\n  host: 0x491\n", "must differ"},
		{"zero attempts", "version: 1\ntiming:\n  release_attempts: 0\n", "release_attempts"},
		{"long charmap key", "version: 1\ncharmap:\n  ab: 1\n", "single character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Bus.Interface = "virtual"
	cfg.Timing.Settle = Duration(75 * time.Millisecond)
	cfg.Remote.Advertise = false
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() = false after Save()")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# fisinject configuration file") {
		t.Error("saved file is missing the header comment")
	}
	if !strings.Contains(string(data), "settle: 75ms") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Bus.Interface != "virtual" || loaded.Timing.Settle != cfg.Timing.Settle || loaded.Remote.Advertise {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}
