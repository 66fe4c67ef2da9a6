// Package metric implements the stateless scoring functions (C3):
// score(probe, ap) and better_ap_available. Neither function touches
// a store's mutex directly; callers are expected to hold whatever
// locks are required for the snapshot they pass in, per §5.
package metric

import (
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// Score computes the weighted sum described in the specification's
// metric evaluator (§4.2).
func Score(probe domain.ProbeEntry, ap domain.APEntry, w domain.Weights) int {
	score := ap.APWeight

	if probe.HT && ap.HTSupport {
		score += w.HTSupport
	}
	if probe.VHT && ap.VHTSupport {
		score += w.VHTSupport
	}
	if ap.HTSupport && !probe.HT {
		score -= w.NoHTSupport
	}
	if ap.VHTSupport && !probe.VHT {
		score -= w.NoVHTSupport
	}
	if probe.Signal > w.RSSIVal {
		score += w.RSSI
	}
	if probe.Signal < w.LowRSSIVal {
		score -= w.LowRSSI
	}
	if probe.Freq > 5_000_000 {
		score += w.Freq
	}
	if ap.ChannelUtilization > w.ChanUtilVal {
		score -= w.ChanUtil
	}
	if ap.ChannelUtilization > w.MaxChanUtilVal {
		score -= w.MaxChanUtil
	}
	return score
}

// Candidate is one (ap, probe) pairing considered by
// BetterAPAvailable, kept alongside its score for tie-breaking.
type Candidate struct {
	AP    domain.APEntry
	Probe domain.ProbeEntry
	Score int
}

// BetterAPAvailable enumerates every AP sharing currentBSSID's SSID,
// picks the best-scoring ProbeEntry the client has for each of them,
// and reports whether some AP other than currentBSSID beats it by
// more than bandwidthThreshold. Ties favour the current AP. When
// w.UseStationCount is set, the winning AP is disqualified if its
// station count exceeds that of the least-loaded candidate on the
// SSID (the current AP included) by more than w.MaxStationDiff.
//
// aps and probesForClient must already be snapshots taken under the
// caller's store locks (§4.2, §5); this function does not lock
// anything itself.
func BetterAPAvailable(
	currentBSSID domain.MAC,
	client domain.MAC,
	aps []domain.APEntry,
	probesForClient []domain.ProbeEntry,
	w domain.Weights,
) (found bool, winner domain.APEntry, winnerScore int) {
	current, ok := apByBSSID(aps, currentBSSID)
	if !ok {
		return false, domain.APEntry{}, 0
	}

	candidates := bestCandidatesPerAP(aps, probesForClient, current.SSID, w)
	if len(candidates) == 0 {
		return false, domain.APEntry{}, 0
	}

	currentScore, haveCurrent := 0, false
	for _, c := range candidates {
		if c.AP.BSSID == currentBSSID {
			currentScore = c.Score
			haveCurrent = true
		}
	}
	if !haveCurrent {
		// No probe observation for the current AP; treat its score
		// as the lowest possible so any known candidate can beat it.
		currentScore = minInt
	}

	best := domain.APEntry{}
	bestScore := minInt
	bestFound := false
	minStationCount, haveMin := 0, false
	for _, c := range candidates {
		if !haveMin || c.AP.StationCount < minStationCount {
			minStationCount, haveMin = c.AP.StationCount, true
		}
		if c.AP.BSSID == currentBSSID {
			continue
		}
		if c.Score <= bestScore {
			continue
		}
		best, bestScore, bestFound = c.AP, c.Score, true
	}
	if !bestFound {
		return false, domain.APEntry{}, 0
	}

	// An otherwise-winning AP is disqualified if it carries
	// significantly more stations than the least-loaded candidate,
	// preventing the decision engine from steering clients onto an
	// already-crowded radio.
	if w.UseStationCount && best.StationCount > minStationCount+w.MaxStationDiff {
		return false, domain.APEntry{}, 0
	}

	if bestScore > currentScore+w.BandwidthThreshold {
		return true, best, bestScore
	}
	return false, domain.APEntry{}, 0
}

const minInt = -1 << 31

func apByBSSID(aps []domain.APEntry, bssid domain.MAC) (domain.APEntry, bool) {
	for _, ap := range aps {
		if ap.BSSID == bssid {
			return ap, true
		}
	}
	return domain.APEntry{}, false
}

// bestCandidatesPerAP finds, for every AP sharing ssid, the
// highest-scoring probe the client has toward it.
func bestCandidatesPerAP(aps []domain.APEntry, probes []domain.ProbeEntry, ssid string, w domain.Weights) []Candidate {
	var out []Candidate
	for _, ap := range aps {
		if ap.SSID != ssid {
			continue
		}
		var best *domain.ProbeEntry
		bestScore := minInt
		for i := range probes {
			p := probes[i]
			if p.Target != ap.BSSID && p.BSSID != ap.BSSID {
				continue
			}
			s := Score(p, ap, w)
			if s > bestScore {
				bestScore = s
				best = &probes[i]
			}
		}
		if best == nil {
			continue
		}
		out = append(out, Candidate{AP: ap, Probe: *best, Score: bestScore})
	}
	return out
}
