package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/protocol"
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config is the whole configuration file.
type Config struct {
	Version int          `yaml:"version"`
	Bus     BusConfig    `yaml:"bus"`
	IDs     IDConfig     `yaml:"ids"`
	Timing  TimingConfig `yaml:"timing"`
	Remote  RemoteConfig `yaml:"remote"`
	Log     LogConfig    `yaml:"log"`

	// Charmap maps single characters to display code points, e.g. "°": 0xB0.
	Charmap map[string]int `yaml:"charmap,omitempty"`
}

// BusConfig selects the CAN transport.
type BusConfig struct {
	Interface string `yaml:"interface"` // socketcan, slcan or virtual
	Channel   string `yaml:"channel"`   // can0, /dev/ttyACM0, ...
	Bitrate   int    `yaml:"bitrate"`
}

// IDConfig holds the CAN ids of the two peers.
type IDConfig struct {
	Host    uint32 `yaml:"host"`
	Display uint32 `yaml:"display"`
}

// TimingConfig holds protocol and loop timings.
type TimingConfig struct {
	AckWindow         Duration `yaml:"ack_window"`
	Settle            Duration `yaml:"settle"`
	ReleaseAttempts   int      `yaml:"release_attempts"`
	ReleaseBackoff    Duration `yaml:"release_backoff"`
	ReleaseAckTimeout Duration `yaml:"release_ack_timeout"`
	PollSlice         Duration `yaml:"poll_slice"`
	Tick              Duration `yaml:"tick"`
	NoTrafficWarning  Duration `yaml:"no_traffic_warning"`
}

// RemoteConfig configures the serve command.
type RemoteConfig struct {
	Addr      string  `yaml:"addr"`
	Advertise bool    `yaml:"advertise"`
	Name      string  `yaml:"name,omitempty"` // mDNS instance name, hostname when empty
	RateLimit float64 `yaml:"rate_limit"`     // command submissions per second
	Burst     int     `yaml:"burst"`
}

// LogConfig configures logging. An empty level leaves logging silent unless
// FISINJECT_LOG_LEVEL is set.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration for a SocketCAN adapter on can0 talking
// to a stock cluster.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Bus: BusConfig{
			Interface: "socketcan",
			Channel:   "can0",
			Bitrate:   500000,
		},
		IDs: IDConfig{
			Host:    engine.DefaultHostID,
			Display: engine.DefaultDisplayID,
		},
		Timing: TimingConfig{
			AckWindow:         Duration(engine.DefaultAckWindow),
			Settle:            Duration(engine.DefaultSettle),
			ReleaseAttempts:   engine.DefaultReleaseAttempts,
			ReleaseBackoff:    Duration(engine.DefaultReleaseBackoff),
			ReleaseAckTimeout: Duration(engine.DefaultReleaseAckTimeout),
			PollSlice:         Duration(engine.DefaultPollSlice),
			Tick:              Duration(engine.DefaultTick),
			NoTrafficWarning:  Duration(engine.DefaultNoTrafficWarning),
		},
		Remote: RemoteConfig{
			Addr:      ":8480",
			Advertise: true,
			RateLimit: 5,
			Burst:     5,
		},
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.Bus.Interface == "" {
		errs = append(errs, errors.New("bus.interface is required"))
	}
	if c.Bus.Bitrate <= 0 {
		errs = append(errs, fmt.Errorf("bus.bitrate must be positive, got %d", c.Bus.Bitrate))
	}
	for name, id := range map[string]uint32{"ids.host": c.IDs.Host, "ids.display": c.IDs.Display} {
		if id == 0 || id > can.MaxExtID {
			errs = append(errs, fmt.Errorf("%s 0x%X is not a valid CAN id", name, id))
		}
	}
	if c.IDs.Host == c.IDs.Display {
		errs = append(errs, fmt.Errorf("ids.host and ids.display must differ (both 0x%X)", c.IDs.Host))
	}

	t := c.Timing
	for name, d := range map[string]Duration{
		"timing.ack_window":          t.AckWindow,
		"timing.settle":              t.Settle,
		"timing.release_backoff":     t.ReleaseBackoff,
		"timing.release_ack_timeout": t.ReleaseAckTimeout,
		"timing.poll_slice":          t.PollSlice,
		"timing.tick":                t.Tick,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if t.NoTrafficWarning < 0 {
		errs = append(errs, fmt.Errorf("timing.no_traffic_warning must not be negative, got %s", t.NoTrafficWarning))
	}
	if t.ReleaseAttempts < 1 {
		errs = append(errs, fmt.Errorf("timing.release_attempts must be at least 1, got %d", t.ReleaseAttempts))
	}

	if c.Remote.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("remote.rate_limit must be positive, got %v", c.Remote.RateLimit))
	}
	if c.Remote.Burst < 1 {
		errs = append(errs, fmt.Errorf("remote.burst must be at least 1, got %d", c.Remote.Burst))
	}
	if _, err := c.CharmapTable(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CANConfig returns the transport configuration.
func (c *Config) CANConfig() can.Config {
	return can.Config{
		Interface: c.Bus.Interface,
		Channel:   c.Bus.Channel,
		Bitrate:   c.Bus.Bitrate,
	}
}

// CharmapTable builds the display character map.
func (c *Config) CharmapTable() (*protocol.Charmap, error) {
	cm := protocol.DefaultCharmap()
	for key, code := range c.Charmap {
		if utf8.RuneCountInString(key) != 1 {
			return nil, fmt.Errorf("charmap key %q must be a single character", key)
		}
		if code < 0 || code > 0xFF {
			return nil, fmt.Errorf("charmap value for %q out of range: %d", key, code)
		}
		r, _ := utf8.DecodeRuneInString(key)
		cm.Overrides[r] = byte(code)
	}
	return cm, nil
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() (engine.Options, error) {
	cm, err := c.CharmapTable()
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.DefaultOptions()
	opts.HostID = c.IDs.Host
	opts.DisplayID = c.IDs.Display
	opts.AckWindow = c.Timing.AckWindow.D()
	opts.Settle = c.Timing.Settle.D()
	opts.ReleaseAttempts = c.Timing.ReleaseAttempts
	opts.ReleaseBackoff = c.Timing.ReleaseBackoff.D()
	opts.ReleaseAckTimeout = c.Timing.ReleaseAckTimeout.D()
	opts.PollSlice = c.Timing.PollSlice.D()
	opts.Charmap = cm
	return opts, nil
}

// RunnerOptions converts the configuration into runner options.
func (c *Config) RunnerOptions() engine.RunnerOptions {
	return engine.RunnerOptions{
		Tick:             c.Timing.Tick.D(),
		NoTrafficWarning: c.Timing.NoTrafficWarning.D(),
	}
}

