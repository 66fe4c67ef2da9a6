package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

func mustMAC(t *testing.T, s string) domain.MAC {
	t.Helper()
	mac, err := domain.ParseMAC(s)
	require.NoError(t, err)
	return mac
}

// P1: inserting the same identity twice bumps the counter rather than
// creating a duplicate row.
func TestProbeStoreInsertBumpsCounter(t *testing.T) {
	s := NewProbeStore()
	client := mustMAC(t, "aa:aa:aa:aa:aa:01")
	bssid := mustMAC(t, "bb:bb:bb:bb:bb:01")

	entry := domain.ProbeEntry{BSSID: bssid, Client: client, Time: time.Now()}
	s.Insert(entry, InsertPolicy{SortAfterInsert: true, BumpCounterIfPresent: true})
	stored, _ := s.Insert(entry, InsertPolicy{SortAfterInsert: true, BumpCounterIfPresent: true})

	assert.Equal(t, 2, stored.Counter)
	assert.Equal(t, 1, s.Len())
}

// P2/I3: Age removes only rows older than ttl.
func TestProbeStoreAgeRemovesStaleRows(t *testing.T) {
	s := NewProbeStore()
	now := time.Now()
	fresh := mustMAC(t, "aa:aa:aa:aa:aa:01")
	stale := mustMAC(t, "aa:aa:aa:aa:aa:02")
	bssid := mustMAC(t, "bb:bb:bb:bb:bb:01")

	s.Insert(domain.ProbeEntry{BSSID: bssid, Client: fresh, Time: now}, InsertPolicy{})
	s.Insert(domain.ProbeEntry{BSSID: bssid, Client: stale, Time: now.Add(-2 * time.Minute)}, InsertPolicy{})

	removed := s.Age(now, time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(domain.ProbeKey{BSSID: bssid, Client: fresh})
	assert.True(t, ok)
}

// I4: the AP store keeps (ssid, bssid) order across inserts regardless
// of insertion order.
func TestAPStoreMaintainsTotalOrder(t *testing.T) {
	s := NewAPStore()
	b1 := mustMAC(t, "aa:aa:aa:aa:aa:02")
	b2 := mustMAC(t, "aa:aa:aa:aa:aa:01")
	b3 := mustMAC(t, "aa:aa:aa:aa:aa:03")

	s.Insert(domain.APEntry{BSSID: b1, SSID: "zzz"}, InsertPolicy{SortAfterInsert: true})
	s.Insert(domain.APEntry{BSSID: b2, SSID: "aaa"}, InsertPolicy{SortAfterInsert: true})
	s.Insert(domain.APEntry{BSSID: b3, SSID: "aaa"}, InsertPolicy{SortAfterInsert: true})

	var order []domain.MAC
	s.Range(func(ap domain.APEntry) bool {
		order = append(order, ap.BSSID)
		return true
	})

	require.Len(t, order, 3)
	assert.Equal(t, []domain.MAC{b2, b3, b1}, order)
}

func TestAPStoreUpdateResortsOnChange(t *testing.T) {
	s := NewAPStore()
	b1 := mustMAC(t, "aa:aa:aa:aa:aa:01")
	b2 := mustMAC(t, "aa:aa:aa:aa:aa:02")

	s.Insert(domain.APEntry{BSSID: b1, SSID: "aaa"}, InsertPolicy{SortAfterInsert: true})
	s.Insert(domain.APEntry{BSSID: b2, SSID: "bbb"}, InsertPolicy{SortAfterInsert: true})

	s.Update(b2, func(ap *domain.APEntry) { ap.SSID = "000" })

	var order []domain.MAC
	s.Range(func(ap domain.APEntry) bool {
		order = append(order, ap.BSSID)
		return true
	})
	assert.Equal(t, []domain.MAC{b2, b1}, order)
}

func TestClientStoreUpdateIsNoOpWhenAbsent(t *testing.T) {
	s := NewClientStore()
	called := false
	s.Update(mustMAC(t, "aa:aa:aa:aa:aa:01"), func(*domain.ClientEntry) { called = true })
	assert.False(t, called)
}

func TestDeniedStoreRangeAndDelete(t *testing.T) {
	s := NewDeniedStore()
	bssid := mustMAC(t, "bb:bb:bb:bb:bb:01")
	client := mustMAC(t, "aa:aa:aa:aa:aa:01")

	d := domain.DeniedReq{BSSID: bssid, Client: client, Time: time.Now()}
	s.Insert(d, InsertPolicy{})
	assert.Equal(t, 1, s.Len())

	s.Delete(d.Identity())
	assert.Equal(t, 0, s.Len())
}

// I5: every mutation of the MAC allow-list persists before returning,
// so a fresh load observes it.
func TestMACAllowListPersistsAcrossReload(t *testing.T) {
	path := t.TempDir() + "/mac_list"
	l, err := NewMACAllowList(path)
	require.NoError(t, err)

	mac := mustMAC(t, "aa:aa:aa:aa:aa:01")
	added, err := l.Add([]domain.MAC{mac})
	require.NoError(t, err)
	assert.Equal(t, []domain.MAC{mac}, added)

	reloaded, err := NewMACAllowList(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Contains(mac))
}

func TestMACAllowListAddIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/mac_list"
	l, err := NewMACAllowList(path)
	require.NoError(t, err)

	mac := mustMAC(t, "aa:aa:aa:aa:aa:01")
	_, err = l.Add([]domain.MAC{mac})
	require.NoError(t, err)

	added, err := l.Add([]domain.MAC{mac})
	require.NoError(t, err)
	assert.Empty(t, added)
}
