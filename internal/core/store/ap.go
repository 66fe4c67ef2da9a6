package store

import (
	"sync"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// APStore is the canonical table of APEntry rows, ordered (ssid,
// bssid) per invariant I4.
type APStore struct {
	mu sync.RWMutex
	t  *table[domain.MAC, domain.APEntry]
}

func NewAPStore() *APStore {
	return &APStore{t: newTable[domain.MAC, domain.APEntry](domain.APEntry.Less)}
}

func (s *APStore) Insert(e domain.APEntry, policy InsertPolicy) (domain.APEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.upsert(e.BSSID, e, func(_, v domain.APEntry) domain.APEntry { return v })
}

func (s *APStore) Get(bssid domain.MAC) (domain.APEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.get(bssid)
}

// Update mutates an existing entry in place via fn and re-sorts it,
// since mutating SSID or BSSID in place would otherwise violate I4;
// fn is expected not to change BSSID (the identity).
func (s *APStore) Update(bssid domain.MAC, fn func(*domain.APEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.t.get(bssid)
	if !ok {
		return
	}
	fn(&e)
	s.t.upsert(bssid, e, func(_, v domain.APEntry) domain.APEntry { return v })
}

func (s *APStore) Delete(bssid domain.MAC) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.delete(bssid)
}

// Range iterates every AP in (ssid, bssid) order under the store's
// lock, so get_network/get_hearing_map's adjacent-equal-SSID grouping
// is deterministic (I4) and cannot interleave with an aging sweep.
func (s *APStore) Range(fn func(domain.APEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.t.rangeOrdered(func(_ domain.MAC, v domain.APEntry) bool { return fn(v) })
}

func (s *APStore) Age(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ageFunc(s.t, now, ttl, func(v domain.APEntry) time.Time { return v.Time })
}

func (s *APStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.len()
}
