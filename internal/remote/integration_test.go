package remote

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/fisinject/internal/can/virtual"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/metrics"
	"github.com/muurk/fisinject/internal/sim"
)

func TestUpdatesAgainstSimulatedCluster(t *testing.T) {
	hub := virtual.NewHub()
	local := hub.Attach("engine")
	peer := hub.Attach("cluster")

	cluster := sim.New(peer, sim.Options{HeartbeatInterval: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cluster.Run(ctx)
	}()

	collector := metrics.New()
	eng := engine.New(local, engine.Options{Observers: []engine.Observer{collector}})
	runner := engine.NewRunner(eng, engine.RunnerOptions{})
	runner.Start()

	t.Cleanup(func() {
		runner.Stop()
		cancel()
		<-done
		_ = local.Close()
		_ = peer.Close()
	})

	srv := New(Config{}, runner, eng, collector)
	h := srv.Handler()

	require.Eventually(t, eng.Active, 2*time.Second, 5*time.Millisecond)

	rec := post(t, h, "01 NAV 05 TURN LEFT")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	top, _ := cluster.Line(0x01)
	middle, _ := cluster.Line(0x05)
	assert.Equal(t, "NAV", top)
	assert.Equal(t, "TURN LEFT", middle)
	assert.False(t, cluster.Claimed(engine.ZoneTop))
	assert.False(t, cluster.Claimed(engine.ZoneMiddle))

	body := scrape(t, h)
	assert.Contains(t, body, `fisinject_display_updates_total{result="ok"} 1`)
	assert.Contains(t, body, "fisinject_bus_active 1")
}
