package replication

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

type fakeTransport struct {
	sent     []domain.Event
	failNext bool
}

func (f *fakeTransport) Broadcast(ctx context.Context, ev domain.Event) error {
	if f.failNext {
		f.failNext = false
		return assert.AnError
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeTransport) Incoming() <-chan domain.Event { return nil }
func (f *fakeTransport) Close() error                  { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mac(t *testing.T, s string) domain.MAC {
	t.Helper()
	m, err := domain.ParseMAC(s)
	require.NoError(t, err)
	return m
}

func newTestManager(t *testing.T) (*Manager, *store.ProbeStore, *store.ClientStore, *store.APStore, *store.MACAllowList, *fakeTransport) {
	probes := store.NewProbeStore()
	clients := store.NewClientStore()
	aps := store.NewAPStore()
	macs, err := store.NewMACAllowList(t.TempDir() + "/mac_list")
	require.NoError(t, err)

	m := NewManager(probes, clients, aps, macs, testLogger())
	ft := &fakeTransport{}
	m.AddTransport(ft)
	return m, probes, clients, aps, macs, ft
}

func TestBroadcastProbeShipsWireEnvelope(t *testing.T) {
	m, _, _, _, _, ft := newTestManager(t)
	n := domain.Notification{BSSID: mac(t, "bb:bb:bb:bb:bb:01"), Address: mac(t, "aa:aa:aa:aa:aa:01")}

	m.BroadcastProbe(context.Background(), n)

	require.Len(t, ft.sent, 1)
	assert.Equal(t, domain.EventProbe, ft.sent[0].Method)
}

// P5/S5: applying a probe event is idempotent - replaying it doesn't
// create a duplicate row, and it never triggers a re-broadcast.
func TestApplyProbeEventIsIdempotentAndSuppressesReplication(t *testing.T) {
	m, probes, _, _, _, ft := newTestManager(t)
	client := mac(t, "aa:aa:aa:aa:aa:02")
	bssid := mac(t, "bb:bb:bb:bb:bb:02")

	n := domain.Notification{BSSID: bssid, Address: client}
	m.BroadcastProbe(context.Background(), n)
	require.Len(t, ft.sent, 1)
	ev := ft.sent[0]

	require.NoError(t, m.Apply(ev))
	require.NoError(t, m.Apply(ev))

	assert.Equal(t, 1, probes.Len())
	// Applying never re-broadcasts: sent still holds only the original.
	assert.Len(t, ft.sent, 1)
}

func TestApplyDeauthEventRemovesClient(t *testing.T) {
	m, _, clients, _, _, _ := newTestManager(t)
	client := mac(t, "aa:aa:aa:aa:aa:03")
	clients.Insert(domain.ClientEntry{Client: client}, store.InsertPolicy{})

	m.BroadcastDeauth(context.Background(), domain.Notification{Address: client, Reason: 1})
	ev := domain.Event{Method: domain.EventDeauth, Data: `{"client":"` + string(client) + `","reason":1}`}
	require.NoError(t, m.Apply(ev))

	_, ok := clients.Get(client)
	assert.False(t, ok)
}

func TestApplyAddMACEventUnionsAllowList(t *testing.T) {
	m, _, _, _, macs, _ := newTestManager(t)
	client := mac(t, "aa:aa:aa:aa:aa:04")

	payload := domain.AddMACPayload{Addrs: []domain.MAC{client}}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, m.Apply(domain.Event{Method: domain.EventAddMAC, Data: string(data)}))
	assert.True(t, macs.Contains(client))
}

func TestApplyUCIEventInvokesRegisteredCallback(t *testing.T) {
	m, _, _, _, _, _ := newTestManager(t)
	var got domain.UCIPayload
	m.OnUCI(func(p domain.UCIPayload) { got = p })

	data, err := json.Marshal(domain.UCIPayload{Times: map[string]int{"probe_ttl": 60}})
	require.NoError(t, err)

	require.NoError(t, m.Apply(domain.Event{Method: domain.EventUCI, Data: string(data)}))
	assert.Equal(t, 60, got.Times["probe_ttl"])
}

func TestApplyUnknownMethodReturnsError(t *testing.T) {
	m, _, _, _, _, _ := newTestManager(t)
	err := m.Apply(domain.Event{Method: "bogus", Data: "{}"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBroadcastClientsShipsWireEnvelope(t *testing.T) {
	m, _, _, _, _, ft := newTestManager(t)
	bssid := mac(t, "bb:bb:bb:bb:bb:10")
	client := mac(t, "aa:aa:aa:aa:aa:10")

	m.BroadcastClients(context.Background(), bssid, []domain.ClientInfo{{Client: client, HT: true}})

	require.Len(t, ft.sent, 1)
	assert.Equal(t, domain.EventClients, ft.sent[0].Method)
}

func TestApplyClientsEventPopulatesClientStore(t *testing.T) {
	m, _, clients, _, _, _ := newTestManager(t)
	bssid := mac(t, "bb:bb:bb:bb:bb:11")
	client := mac(t, "aa:aa:aa:aa:aa:11")

	payload := clientsWire{BSSID: bssid, Clients: []clientWireRow{{Client: client, HT: true}}}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, m.Apply(domain.Event{Method: domain.EventClients, Data: string(data)}))

	got, ok := clients.Get(client)
	require.True(t, ok)
	assert.Equal(t, bssid, got.BSSID)
	assert.True(t, got.HT)
}

func TestBroadcastAPShipsWireEnvelope(t *testing.T) {
	m, _, _, _, _, ft := newTestManager(t)
	ap := domain.APEntry{BSSID: mac(t, "bb:bb:bb:bb:bb:12"), SSID: "home"}

	m.BroadcastAP(context.Background(), ap)

	require.Len(t, ft.sent, 1)
	assert.Equal(t, domain.EventAP, ft.sent[0].Method)
}

func TestApplyAPEventPopulatesAPStoreAsNonLocal(t *testing.T) {
	m, _, _, aps, _, _ := newTestManager(t)
	bssid := mac(t, "bb:bb:bb:bb:bb:13")

	payload := apWire{BSSID: bssid, SSID: "home", ChannelUtilization: 42}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, m.Apply(domain.Event{Method: domain.EventAP, Data: string(data)}))

	got, ok := aps.Get(bssid)
	require.True(t, ok)
	assert.False(t, got.Local)
	assert.Equal(t, 42, got.ChannelUtilization)
}

func TestBroadcastFailureIsLoggedNotFatal(t *testing.T) {
	m, _, _, _, _, ft := newTestManager(t)
	ft.failNext = true
	// Should not panic despite the transport failing.
	m.BroadcastDeauth(context.Background(), domain.Notification{Address: mac(t, "aa:aa:aa:aa:aa:05")})
	assert.Empty(t, ft.sent)
}
