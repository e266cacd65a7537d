package virtual

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/fisinject/internal/can"
)

func TestHubDeliversToOtherPorts(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("a")
	b := hub.Attach("b")
	c := hub.Attach("c")

	require.NoError(t, a.Send(can.Frame{ID: 0x490, Data: []byte{0x10, 0x36}}))

	for _, p := range []*Port{b, c} {
		f, ok, err := p.Receive(50 * time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok, "port %s should receive the frame", p.Name())
		assert.Equal(t, uint32(0x490), f.ID)
		assert.Equal(t, []byte{0x10, 0x36}, f.Data)
	}

	_, ok, err := a.Receive(0)
	require.NoError(t, err)
	assert.False(t, ok, "sender must not receive its own frame")
	assert.Equal(t, uint64(1), a.Sent())
}

func TestReceiveZeroTimeoutDoesNotBlock(t *testing.T) {
	p := NewHub().Attach("solo")
	start := time.Now()
	_, ok, err := p.Receive(0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestReceiveHonoursTimeout(t *testing.T) {
	p := NewHub().Attach("solo")
	start := time.Now()
	_, ok, err := p.Receive(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestFailSends(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("a")
	b := hub.Attach("b")

	cause := errors.New("bus off")
	a.FailSends(cause)
	err := a.Send(can.Frame{ID: 0x490, Data: []byte{0x10}})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, can.IsTransportError(err))

	_, ok, _ := b.Receive(0)
	assert.False(t, ok, "failed send must not be delivered")

	a.FailSends(nil)
	require.NoError(t, a.Send(can.Frame{ID: 0x490, Data: []byte{0x10}}))
}

func TestClose(t *testing.T) {
	hub := NewHub()
	a := hub.Attach("a")
	b := hub.Attach("b")
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, _, err := b.Receive(0)
	assert.True(t, IsClosed(err))
	assert.True(t, IsClosed(b.Send(can.Frame{ID: 1})))

	// a keeps working with b detached
	require.NoError(t, a.Send(can.Frame{ID: 1}))
}

func TestRegisteredDriver(t *testing.T) {
	bus, err := can.Open(can.Config{Interface: DriverName, Channel: "test-node"})
	require.NoError(t, err)
	defer bus.Close()

	peer := Default().Attach("peer")
	defer peer.Close()

	require.NoError(t, peer.Send(can.Frame{ID: 0x491, Data: []byte{0xA3}}))
	f, ok, err := bus.Receive(50 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0x491), f.ID)
}
