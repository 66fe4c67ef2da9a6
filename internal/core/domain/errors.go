package domain

import "errors"

// Sentinel error kinds, matching the taxonomy every rejection and
// logged failure in this engine is classified under.
var (
	// ErrInvalidArgument marks a malformed MAC or request field.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a required AP or probe entry that is absent.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks an RPC timeout or peer send failure; the
	// caller logs and drops, the next timer tick retries.
	ErrTransient = errors.New("transient failure")
	// ErrFatal marks a startup failure that should exit the process
	// non-zero (e.g. the control socket could not be opened).
	ErrFatal = errors.New("fatal")
)
