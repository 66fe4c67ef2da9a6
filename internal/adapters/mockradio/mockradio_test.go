package mockradio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

func TestNewAssignsDistinctBSSIDPerIface(t *testing.T) {
	r := New([]string{"wlan0", "wlan1"}, 3, time.Millisecond, 1)

	ifaces, err := r.Discover(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wlan0", "wlan1"}, ifaces)
	assert.NotEqual(t, r.bssids["wlan0"], r.bssids["wlan1"])
}

func TestNotificationsEmitsProbesForKnownIface(t *testing.T) {
	r := New([]string{"wlan0"}, 2, time.Millisecond, 42)

	ch, err := r.Notifications("wlan0")
	require.NoError(t, err)

	select {
	case n := <-ch:
		assert.Equal(t, domain.MethodProbe, n.Method)
		assert.Equal(t, r.bssids["wlan0"], n.BSSID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for synthetic probe")
	}
}

func TestNotificationsUnknownIfaceReturnsNotFound(t *testing.T) {
	r := New([]string{"wlan0"}, 1, time.Millisecond, 1)
	_, err := r.Notifications("wlan9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetClientsReturnsSyntheticPool(t *testing.T) {
	r := New([]string{"wlan0"}, 5, time.Second, 1)
	report, err := r.GetClients(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Len(t, report.Clients, 5)
	assert.Equal(t, r.bssids["wlan0"], report.BSSID)
}

func TestGetChannelUtilizationIsMonotonicallyIncreasing(t *testing.T) {
	r := New([]string{"wlan0"}, 1, time.Second, 1)
	busy1, total1, err := r.GetChannelUtilization(context.Background(), "wlan0")
	require.NoError(t, err)
	busy2, total2, err := r.GetChannelUtilization(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Greater(t, busy2, busy1)
	assert.Greater(t, total2, total1)
}
