package radiomanager

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscoverListsIfaceSocketsExcludingGlobal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"wlan0", "wlan1", "global"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	s := New(dir, testLogger())
	ifaces, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wlan0", "wlan1"}, ifaces)
}

func TestDecodeNotificationProbe(t *testing.T) {
	params, err := json.Marshal(domain.Notification{Address: mustMAC(t, "aa:aa:aa:aa:aa:01"), Signal: -60})
	require.NoError(t, err)

	n, err := decodeNotification(frame{Method: "probe", Params: params})
	require.NoError(t, err)
	assert.Equal(t, domain.MethodProbe, n.Method)
	assert.Equal(t, int32(-60), n.Signal)
}

func TestDecodeNotificationUnknownMethod(t *testing.T) {
	_, err := decodeNotification(frame{Method: "bogus", Params: []byte("{}")})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCallWithoutOpenConnectionReturnsNotFound(t *testing.T) {
	s := New(t.TempDir(), testLogger())
	err := s.call(context.Background(), "wlan0", "kick", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func mustMAC(t *testing.T, addr string) domain.MAC {
	t.Helper()
	m, err := domain.ParseMAC(addr)
	require.NoError(t, err)
	return m
}
