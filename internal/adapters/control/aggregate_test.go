package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

func mac(t *testing.T, s string) domain.MAC {
	t.Helper()
	m, err := domain.ParseMAC(s)
	require.NoError(t, err)
	return m
}

func TestHearingMapGroupsBySSIDClientBSSID(t *testing.T) {
	probes := store.NewProbeStore()
	aps := store.NewAPStore()

	bssid := mac(t, "bb:bb:bb:bb:bb:01")
	client := mac(t, "aa:aa:aa:aa:aa:01")
	aps.Insert(domain.APEntry{BSSID: bssid, SSID: "home"}, store.InsertPolicy{SortAfterInsert: true})
	probes.Insert(domain.ProbeEntry{BSSID: bssid, Client: client, Signal: -50}, store.InsertPolicy{SortAfterInsert: true})

	hm := HearingMap(probes, aps, domain.DefaultWeights())

	require.Contains(t, hm, "home")
	require.Contains(t, hm["home"], string(client))
	ap, ok := hm["home"][string(client)][string(bssid)]
	require.True(t, ok)
	assert.Equal(t, int32(-50), ap.Signal)
}

func TestHearingMapSkipsProbesWithoutKnownAP(t *testing.T) {
	probes := store.NewProbeStore()
	aps := store.NewAPStore()
	probes.Insert(domain.ProbeEntry{BSSID: mac(t, "bb:bb:bb:bb:bb:02"), Client: mac(t, "aa:aa:aa:aa:aa:02")}, store.InsertPolicy{})

	hm := HearingMap(probes, aps, domain.DefaultWeights())
	assert.Empty(t, hm)
}

func TestNetworkMarksLocalAPsAndAttachesSignal(t *testing.T) {
	clients := store.NewClientStore()
	aps := store.NewAPStore()
	probes := store.NewProbeStore()

	bssid := mac(t, "bb:bb:bb:bb:bb:03")
	client := mac(t, "aa:aa:aa:aa:aa:03")
	aps.Insert(domain.APEntry{BSSID: bssid, SSID: "home"}, store.InsertPolicy{SortAfterInsert: true})
	clients.Insert(domain.ClientEntry{BSSID: bssid, Client: client}, store.InsertPolicy{})
	probes.Insert(domain.ProbeEntry{BSSID: bssid, Client: client, Signal: -42}, store.InsertPolicy{})

	net := Network(clients, aps, probes, map[domain.MAC]bool{bssid: true})

	row := net["home"][string(bssid)]
	assert.True(t, row.Local)
	require.Contains(t, row.Clients, string(client))
	assert.Equal(t, int32(-42), row.Clients[string(client)].Signal)
}

func TestNetworkAPNotInLocalSetIsNotLocal(t *testing.T) {
	clients := store.NewClientStore()
	aps := store.NewAPStore()
	probes := store.NewProbeStore()
	bssid := mac(t, "bb:bb:bb:bb:bb:04")
	aps.Insert(domain.APEntry{BSSID: bssid, SSID: "guest"}, store.InsertPolicy{SortAfterInsert: true})

	net := Network(clients, aps, probes, map[domain.MAC]bool{})
	assert.False(t, net["guest"][string(bssid)].Local)
}
