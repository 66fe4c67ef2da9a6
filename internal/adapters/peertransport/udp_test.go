package peertransport

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUDPBroadcastRoundTrips(t *testing.T) {
	recv, err := NewUDP("127.0.0.1:0", nil, testLogger())
	require.NoError(t, err)
	defer recv.Close()

	send, err := NewUDP("127.0.0.1:0", []string{recv.conn.LocalAddr().String()}, testLogger())
	require.NoError(t, err)
	defer send.Close()

	ev := domain.Event{Method: domain.EventProbe, Data: `{"client":"aa:aa:aa:aa:aa:01"}`}
	require.NoError(t, send.Broadcast(context.Background(), ev))

	select {
	case got := <-recv.Incoming():
		assert.Equal(t, ev, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestEncryptedUDPRejectsWrongKey(t *testing.T) {
	var keyA, keyB [32]byte
	keyA[0] = 1
	keyB[0] = 2

	recv, err := NewEncryptedUDP("127.0.0.1:0", nil, keyA, testLogger())
	require.NoError(t, err)
	defer recv.Close()

	send, err := NewEncryptedUDP("127.0.0.1:0", []string{recv.conn.LocalAddr().String()}, keyB, testLogger())
	require.NoError(t, err)
	defer send.Close()

	ev := domain.Event{Method: domain.EventDeauth, Data: `{"client":"aa:aa:aa:aa:aa:02"}`}
	require.NoError(t, send.Broadcast(context.Background(), ev))

	select {
	case <-recv.Incoming():
		t.Fatal("datagram sealed with a different key should not decrypt")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEncryptedUDPRoundTripsWithSharedKey(t *testing.T) {
	var key [32]byte
	key[0] = 7

	recv, err := NewEncryptedUDP("127.0.0.1:0", nil, key, testLogger())
	require.NoError(t, err)
	defer recv.Close()

	send, err := NewEncryptedUDP("127.0.0.1:0", []string{recv.conn.LocalAddr().String()}, key, testLogger())
	require.NoError(t, err)
	defer send.Close()

	ev := domain.Event{Method: domain.EventAddMAC, Data: `{"addrs":["aa:aa:aa:aa:aa:03"]}`}
	require.NoError(t, send.Broadcast(context.Background(), ev))

	select {
	case got := <-recv.Incoming():
		assert.Equal(t, ev, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sealed datagram")
	}
}
