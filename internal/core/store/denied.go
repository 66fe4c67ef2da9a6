package store

import (
	"sync"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// DeniedStore is the canonical table of DeniedReq rows, keyed by
// (bssid, client).
type DeniedStore struct {
	mu sync.RWMutex
	t  *table[domain.ProbeKey, domain.DeniedReq]
}

func NewDeniedStore() *DeniedStore {
	return &DeniedStore{t: newTable[domain.ProbeKey, domain.DeniedReq](nil)}
}

func (s *DeniedStore) Insert(e domain.DeniedReq, policy InsertPolicy) (domain.DeniedReq, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.upsert(e.Identity(), e, func(_, v domain.DeniedReq) domain.DeniedReq { return v })
}

func (s *DeniedStore) Get(id domain.ProbeKey) (domain.DeniedReq, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.get(id)
}

func (s *DeniedStore) Delete(id domain.ProbeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.delete(id)
}

func (s *DeniedStore) Range(fn func(domain.DeniedReq) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.t.rangeOrdered(func(_ domain.ProbeKey, v domain.DeniedReq) bool { return fn(v) })
}

func (s *DeniedStore) Age(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ageFunc(s.t, now, ttl, func(v domain.DeniedReq) time.Time { return v.Time })
}

func (s *DeniedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.len()
}
