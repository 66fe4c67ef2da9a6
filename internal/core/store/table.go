// Package store implements the canonical in-memory tables (C2):
// Probe, Client, AP and DeniedReq, plus the MAC allow-list. Each store
// owns a single named mutex, per §5's concurrency model, and is
// responsible for its own aging and (for Probe/AP) ordering invariant.
package store

import (
	"sort"
	"time"
)

// table is a generic, mutex-free (the caller holds the store's own
// named mutex) keyed collection with an optional total order. It
// replaces the teacher's 16-way sharded map (registry.deviceShard),
// trading shard concurrency for the strict total order invariant I4
// requires for grouped hearing-map/overview iteration, which a
// hash-sharded table cannot provide.
type table[K comparable, V any] struct {
	rows  map[K]V
	order []K // valid, kept sorted, only when less != nil
	less  func(a, b V) bool
}

func newTable[K comparable, V any](less func(a, b V) bool) *table[K, V] {
	return &table[K, V]{
		rows: make(map[K]V),
		less: less,
	}
}

func (t *table[K, V]) get(k K) (V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

// upsert inserts v under k, or if k already exists, replaces it with
// merge(old, v) and returns existed=true. Ordering position is
// recomputed on every insert so the (ssid,bssid)/(client,bssid) total
// order holds after the call returns (sort_after_insert policy).
func (t *table[K, V]) upsert(k K, v V, merge func(old, v V) V) (result V, existed bool) {
	old, existed := t.rows[k]
	if existed && merge != nil {
		v = merge(old, v)
	}
	t.rows[k] = v

	if t.less != nil {
		if existed {
			t.removeFromOrder(k, old)
		}
		t.insertSorted(k, v)
	}
	return v, existed
}

func (t *table[K, V]) delete(k K) {
	v, ok := t.rows[k]
	if !ok {
		return
	}
	delete(t.rows, k)
	if t.less != nil {
		t.removeFromOrder(k, v)
	}
}

func (t *table[K, V]) insertSorted(k K, v V) {
	i := sort.Search(len(t.order), func(i int) bool {
		ov, _ := t.rows[t.order[i]]
		return !t.less(ov, v)
	})
	t.order = append(t.order, k)
	copy(t.order[i+1:], t.order[i:])
	t.order[i] = k
}

func (t *table[K, V]) removeFromOrder(k K, _ V) {
	for i, ok := range t.order {
		if ok == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// rangeOrdered calls fn for every row, in the table's total order when
// one is configured, otherwise in unspecified map order. Iteration
// stops early if fn returns false.
func (t *table[K, V]) rangeOrdered(fn func(k K, v V) bool) {
	if t.less != nil {
		for _, k := range t.order {
			if !fn(k, t.rows[k]) {
				return
			}
		}
		return
	}
	for k, v := range t.rows {
		if !fn(k, v) {
			return
		}
	}
}

func (t *table[K, V]) len() int { return len(t.rows) }

// ageFunc deletes every row whose time, per getTime, is older than
// now-ttl. Returns the number of rows removed.
func ageFunc[K comparable, V any](t *table[K, V], now time.Time, ttl time.Duration, getTime func(V) time.Time) int {
	var stale []K
	t.rangeOrdered(func(k K, v V) bool {
		if now.Sub(getTime(v)) > ttl {
			stale = append(stale, k)
		}
		return true
	})
	for _, k := range stale {
		t.delete(k)
	}
	return len(stale)
}
