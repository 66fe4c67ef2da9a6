package peertransport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

func TestTCPBroadcastRoundTrips(t *testing.T) {
	recv, err := NewTCP("127.0.0.1:0", testLogger())
	require.NoError(t, err)
	defer recv.Close()

	send, err := NewTCP("127.0.0.1:0", testLogger())
	require.NoError(t, err)
	defer send.Close()

	send.UpdatePeers([]string{recv.listener.Addr().String()})

	ev := domain.Event{Method: domain.EventUCI, Data: `{"times":{"probe_ttl":60}}`}
	require.NoError(t, send.Broadcast(context.Background(), ev))

	select {
	case got := <-recv.Incoming():
		assert.Equal(t, ev, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tcp frame")
	}
}

func TestTCPBroadcastReusesConnection(t *testing.T) {
	recv, err := NewTCP("127.0.0.1:0", testLogger())
	require.NoError(t, err)
	defer recv.Close()

	send, err := NewTCP("127.0.0.1:0", testLogger())
	require.NoError(t, err)
	defer send.Close()

	addr := recv.listener.Addr().String()
	send.UpdatePeers([]string{addr})

	require.NoError(t, send.Broadcast(context.Background(), domain.Event{Method: domain.EventDeauth, Data: "{}"}))
	<-recv.Incoming()
	require.NoError(t, send.Broadcast(context.Background(), domain.Event{Method: domain.EventDeauth, Data: "{}"}))
	<-recv.Incoming()

	send.mu.Lock()
	n := len(send.conns)
	send.mu.Unlock()
	assert.Equal(t, 1, n)
}

func TestTCPUpdatePeersReplacesTargets(t *testing.T) {
	send, err := NewTCP("127.0.0.1:0", testLogger())
	require.NoError(t, err)
	defer send.Close()

	send.UpdatePeers([]string{"127.0.0.1:1"})
	send.UpdatePeers([]string{"127.0.0.1:2", "127.0.0.1:3"})

	send.mu.Lock()
	peers := append([]string(nil), send.peers...)
	send.mu.Unlock()
	assert.Equal(t, []string{"127.0.0.1:2", "127.0.0.1:3"}, peers)
}
