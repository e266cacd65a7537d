package engine

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/muurk/fisinject/internal/protocol"
)

// Default bus ids.
const (
	DefaultHostID    = 0x490
	DefaultDisplayID = 0x491
)

// Default timings.
const (
	DefaultAckWindow         = 50 * time.Millisecond
	DefaultSettle            = 50 * time.Millisecond
	DefaultReleaseAttempts   = 3
	DefaultReleaseBackoff    = 50 * time.Millisecond
	DefaultReleaseAckTimeout = 500 * time.Millisecond
	DefaultPollSlice         = 10 * time.Millisecond
)

// Options configures an Engine. Zero fields take their defaults.
type Options struct {
	HostID    uint32
	DisplayID uint32

	AckWindow         time.Duration
	Settle            time.Duration
	ReleaseAttempts   int
	ReleaseBackoff    time.Duration
	ReleaseAckTimeout time.Duration
	PollSlice         time.Duration

	Clock     clockwork.Clock
	Charmap   *protocol.Charmap
	Observers []Observer
}

// DefaultOptions returns the options used for a stock instrument cluster.
func DefaultOptions() Options {
	return Options{
		HostID:            DefaultHostID,
		DisplayID:         DefaultDisplayID,
		AckWindow:         DefaultAckWindow,
		Settle:            DefaultSettle,
		ReleaseAttempts:   DefaultReleaseAttempts,
		ReleaseBackoff:    DefaultReleaseBackoff,
		ReleaseAckTimeout: DefaultReleaseAckTimeout,
		PollSlice:         DefaultPollSlice,
		Clock:             clockwork.NewRealClock(),
		Charmap:           protocol.DefaultCharmap(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HostID == 0 {
		o.HostID = d.HostID
	}
	if o.DisplayID == 0 {
		o.DisplayID = d.DisplayID
	}
	if o.AckWindow <= 0 {
		o.AckWindow = d.AckWindow
	}
	if o.Settle <= 0 {
		o.Settle = d.Settle
	}
	if o.ReleaseAttempts <= 0 {
		o.ReleaseAttempts = d.ReleaseAttempts
	}
	if o.ReleaseBackoff <= 0 {
		o.ReleaseBackoff = d.ReleaseBackoff
	}
	if o.ReleaseAckTimeout <= 0 {
		o.ReleaseAckTimeout = d.ReleaseAckTimeout
	}
	if o.PollSlice <= 0 {
		o.PollSlice = d.PollSlice
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.Charmap == nil {
		o.Charmap = d.Charmap
	}
	return o
}
