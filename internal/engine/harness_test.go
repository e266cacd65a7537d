package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/can/virtual"
	"github.com/muurk/fisinject/internal/sim"
)

// newBusPair returns the engine's port and a raw peer port on a private hub.
func newBusPair(t *testing.T) (*virtual.Port, *virtual.Port) {
	t.Helper()
	hub := virtual.NewHub()
	local := hub.Attach("engine")
	peer := hub.Attach("peer")
	t.Cleanup(func() {
		_ = local.Close()
		_ = peer.Close()
	})
	return local, peer
}

// newSimulated returns an engine connected to a running simulated cluster.
func newSimulated(t *testing.T, opts sim.Options) (*Engine, *sim.Cluster, *virtual.Port) {
	t.Helper()
	local, peer := newBusPair(t)
	cluster := sim.New(peer, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cluster.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return New(local, Options{}), cluster, local
}

// drain collects frames from port until it has been quiet for quiet.
func drain(t *testing.T, port can.Bus, quiet time.Duration) []can.Frame {
	t.Helper()
	var frames []can.Frame
	for {
		f, ok, err := port.Receive(quiet)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if !ok {
			return frames
		}
		frames = append(frames, f)
	}
}

// countingClock counts Sleep calls on top of a real clock.
type countingClock struct {
	clockwork.Clock
	sleeps atomic.Int32
}

func (c *countingClock) Sleep(d time.Duration) {
	c.sleeps.Add(1)
	c.Clock.Sleep(d)
}
