package decision

import (
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// ProcessDeniedRequests implements §4.4's DeniedReq processor: every
// DeniedReq older than threshold is removed, unconditionally. Of
// those, the ones whose client is not currently a local ClientEntry
// are additionally promoted to the MAC allow-list, on the assumption
// their driver is non-compliant. Returns the MACs newly added, for
// the caller to persist (already done inside MACAllowList.Add) and
// broadcast to peers.
func (e *Engine) ProcessDeniedRequests(threshold time.Duration) []domain.MAC {
	now := e.Clock.Now()
	var toDelete []domain.ProbeKey
	var toPromote []domain.MAC

	e.Denied.Range(func(d domain.DeniedReq) bool {
		if now.Sub(d.Time) < threshold {
			return true
		}
		toDelete = append(toDelete, d.Identity())
		if _, stillLocal := e.Clients.Get(d.Client); !stillLocal {
			toPromote = append(toPromote, d.Client)
		}
		return true
	})

	for _, id := range toDelete {
		e.Denied.Delete(id)
	}

	if len(toPromote) == 0 {
		return nil
	}

	added, err := e.MACs.Add(toPromote)
	if err != nil {
		// Persist failed; don't report these as added so the caller
		// doesn't broadcast MACs the allow-list file doesn't hold yet.
		return nil
	}
	return added
}
