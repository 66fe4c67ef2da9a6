package store

import (
	"sync"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// ProbeStore is the canonical table of ProbeEntry rows, ordered
// (client, bssid) per the data model's ordering note, guarded by its
// own named mutex per §5.
type ProbeStore struct {
	mu sync.RWMutex
	t  *table[domain.ProbeKey, domain.ProbeEntry]
}

func NewProbeStore() *ProbeStore {
	return &ProbeStore{
		t: newTable[domain.ProbeKey, domain.ProbeEntry](func(a, b domain.ProbeEntry) bool {
			if a.Client != b.Client {
				return a.Client < b.Client
			}
			return a.BSSID < b.BSSID
		}),
	}
}

// Insert applies the insertion policy and returns the stored row plus
// whether the identity already existed (P1).
func (s *ProbeStore) Insert(e domain.ProbeEntry, policy InsertPolicy) (domain.ProbeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merge func(old, v domain.ProbeEntry) domain.ProbeEntry
	if policy.BumpCounterIfPresent {
		// A new identity counts as its first sighting, so Counter always
		// equals the number of inserts seen for it.
		if _, ok := s.t.get(e.Identity()); !ok {
			e.Counter = 1
		}
		merge = func(old, v domain.ProbeEntry) domain.ProbeEntry {
			v.Counter = old.Counter + 1
			return v
		}
	} else {
		merge = func(_, v domain.ProbeEntry) domain.ProbeEntry { return v }
	}
	return s.t.upsert(e.Identity(), e, merge)
}

func (s *ProbeStore) Get(id domain.ProbeKey) (domain.ProbeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.get(id)
}

func (s *ProbeStore) Delete(id domain.ProbeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.delete(id)
}

// UpdateRCPIRSNI implements the beacon-report ingest path: it updates
// RCPI/RSNI on an existing entry and returns true, or returns false if
// no matching entry exists, signalling the caller to insert a
// synthetic ProbeEntry (§4.5).
func (s *ProbeStore) UpdateRCPIRSNI(id domain.ProbeKey, rcpi, rsni int16, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.t.get(id)
	if !ok {
		return false
	}
	e.RCPI = rcpi
	e.RSNI = rsni
	e.Time = now
	s.t.upsert(id, e, func(_, v domain.ProbeEntry) domain.ProbeEntry { return v })
	return true
}

// Range iterates every row in (client, bssid) order under the store's
// lock, so a traversal (hearing map, better_ap_available) cannot
// interleave with an aging sweep, per §5.
func (s *ProbeStore) Range(fn func(domain.ProbeEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.t.rangeOrdered(func(_ domain.ProbeKey, v domain.ProbeEntry) bool { return fn(v) })
}

// Age removes every entry whose time is older than ttl (I3, P2).
func (s *ProbeStore) Age(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ageFunc(s.t, now, ttl, func(v domain.ProbeEntry) time.Time { return v.Time })
}

func (s *ProbeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.len()
}
