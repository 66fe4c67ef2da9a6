package store

// InsertPolicy carries the three insertion-policy flags named in the
// specification. Not every store honours every flag (only Probe/AP
// honour SortAfterInsert meaningfully, since Client/Denied have no
// ordering invariant), but all three are threaded through Insert so
// call sites read the same way regardless of which store they target.
type InsertPolicy struct {
	// SortAfterInsert maintains the store's total-order invariant by
	// placing the new row in sorted position. Probe and AP stores
	// always behave as if this is set; it exists on the struct so
	// call sites document intent rather than relying on a store-
	// specific default.
	SortAfterInsert bool
	// BumpCounterIfPresent increments Counter and refreshes Time on an
	// existing identity instead of creating a duplicate; a new identity
	// starts at Counter 1. Only ProbeStore reads it.
	BumpCounterIfPresent bool
	// SuppressReplication marks an insert that comes from a peer event.
	// No store broadcasts on insert or reads this flag; broadcasting is
	// done by callers outside the stores.
	SuppressReplication bool
}
