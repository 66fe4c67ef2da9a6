// Package decision implements the decision engine (C4): the three
// request-kind entry points, the core decide() verdict function and
// the kick sweep.
package decision

import (
	"github.com/lcalzada-xor/dawnd/internal/core/clock"
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/metric"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
	"github.com/lcalzada-xor/dawnd/internal/telemetry"
)

// RequestKind identifies which of the three management request
// entry points is being decided.
type RequestKind int

const (
	KindProbe RequestKind = iota
	KindAuth
	KindAssoc
)

// Verdict is the engine's answer: Allow, or Deny with a reason code.
// SteerTarget is left nil by the Handle* methods; steering targets are
// reported by KickSweep through KickDecision.Target.
type Verdict struct {
	Allow          bool
	DenyReasonCode int
	SteerTarget    *domain.APEntry
}

// Engine holds references to the stores and evaluator weights; it has
// no mutable state of its own beyond the per-client kick-sweep
// counters, which live alongside the client store's rows as KickCount.
type Engine struct {
	Probes  *store.ProbeStore
	Clients *store.ClientStore
	APs     *store.APStore
	Denied  *store.DeniedStore
	MACs    *store.MACAllowList
	Clock   clock.Clock
	Weights func() domain.Weights // indirection so reload_config takes effect live
}

// Decide implements §4.3's decide(probe, kind) -> allow.
func (e *Engine) Decide(probe domain.ProbeEntry, kind RequestKind) bool {
	allow := e.decide(probe, kind)
	telemetry.DecisionsTotal.WithLabelValues(kind.String(), outcomeLabel(allow)).Inc()
	return allow
}

func (e *Engine) decide(probe domain.ProbeEntry, kind RequestKind) bool {
	w := e.Weights()

	if e.MACs.Contains(probe.Client) {
		return true
	}
	if probe.Counter < w.MinProbeCount {
		return false
	}
	switch kind {
	case KindProbe:
		if !w.EvalProbeReq {
			return true
		}
	case KindAuth:
		if !w.EvalAuthReq {
			return true
		}
	case KindAssoc:
		if !w.EvalAssocReq {
			return true
		}
	default:
		// Unknown request kinds are treated as allow, matching the
		// relied-upon behavior of the reference decide_function.
		return true
	}

	if better, _, _ := e.betterAPAvailable(probe.BSSID, probe.Client, w); better {
		return false
	}
	return true
}

func outcomeLabel(allow bool) string {
	if allow {
		return "allow"
	}
	return "deny"
}

func (k RequestKind) String() string {
	switch k {
	case KindProbe:
		return "probe"
	case KindAuth:
		return "auth"
	case KindAssoc:
		return "assoc"
	default:
		return "unknown"
	}
}

func (e *Engine) betterAPAvailable(bssid, client domain.MAC, w domain.Weights) (bool, domain.APEntry, int) {
	var aps []domain.APEntry
	e.APs.Range(func(ap domain.APEntry) bool {
		aps = append(aps, ap)
		return true
	})
	var probes []domain.ProbeEntry
	e.Probes.Range(func(p domain.ProbeEntry) bool {
		if p.Client == client {
			probes = append(probes, p)
		}
		return true
	})
	found, winner, score := metric.BetterAPAvailable(bssid, client, aps, probes, w)
	return found, winner, score
}

// HandleProbe implements §4.3's handle_probe: insert/refresh the
// ProbeEntry with bump_counter_if_present, then decide.
func (e *Engine) HandleProbe(n domain.Notification) Verdict {
	entry := domain.ProbeEntry{
		BSSID:  n.BSSID,
		Client: n.Address,
		Target: n.Target,
		Signal: n.Signal,
		Freq:   n.Freq,
		HT:     n.HTCapabilities,
		VHT:    n.VHTCapabilities,
		RCPI:   n.RCPI,
		RSNI:   n.RSNI,
		Time:   e.Clock.Now(),
	}
	stored, _ := e.Probes.Insert(entry, store.InsertPolicy{SortAfterInsert: true, BumpCounterIfPresent: true})

	if e.Decide(stored, KindProbe) {
		return Verdict{Allow: true}
	}
	const wlanStatusAPUnableToHandleNewSTA = 17
	return Verdict{Allow: false, DenyReasonCode: wlanStatusAPUnableToHandleNewSTA}
}

// HandleAuth implements §4.3's handle_auth: requires an existing probe.
func (e *Engine) HandleAuth(n domain.Notification) Verdict {
	return e.handleAuthOrAssoc(n, KindAuth, e.Weights().DenyAuthReason)
}

// HandleAssoc implements §4.3's handle_assoc: identical to auth with a
// different deny reason.
func (e *Engine) HandleAssoc(n domain.Notification) Verdict {
	return e.handleAuthOrAssoc(n, KindAssoc, e.Weights().DenyAssocReason)
}

func (e *Engine) handleAuthOrAssoc(n domain.Notification, kind RequestKind, denyReason int) Verdict {
	probe, ok := e.Probes.Get(domain.ProbeKey{BSSID: n.BSSID, Client: n.Address})
	if !ok {
		if e.Weights().UseDriverRecog {
			e.Denied.Insert(domain.DeniedReq{
				BSSID:  n.BSSID,
				Client: n.Address,
				Target: n.Target,
				Signal: n.Signal,
				Freq:   n.Freq,
				Time:   e.Clock.Now(),
			}, store.InsertPolicy{})
		}
		return Verdict{Allow: false, DenyReasonCode: denyReason}
	}

	allow := e.Decide(probe, kind)
	if !allow {
		if e.Weights().UseDriverRecog {
			e.Denied.Insert(domain.DeniedReq{
				BSSID:   probe.BSSID,
				Client:  probe.Client,
				Target:  probe.Target,
				Signal:  probe.Signal,
				Freq:    probe.Freq,
				Counter: probe.Counter,
				Time:    e.Clock.Now(),
			}, store.InsertPolicy{})
		}
		return Verdict{Allow: false, DenyReasonCode: denyReason}
	}
	return Verdict{Allow: true}
}

// KickSweep implements §4.3's periodic kick sweep: for every local
// client, re-evaluate better_ap_available; consecutive positive
// sweeps accumulate in KickCount, and at min_kick_count a BTM hint is
// due. The caller is responsible for issuing the wnm_disassoc_imminent
// RPC and, if configured, the subsequent del_client; KickSweep only
// decides which clients are due and resets counters on a flipped
// verdict.
func (e *Engine) KickSweep() []KickDecision {
	w := e.Weights()
	var due []KickDecision

	var clients []domain.ClientEntry
	e.Clients.Range(func(c domain.ClientEntry) bool {
		clients = append(clients, c)
		return true
	})

	for _, c := range clients {
		better, winner, _ := e.betterAPAvailable(c.BSSID, c.Client, w)
		if !better {
			e.Clients.Update(c.Client, func(e *domain.ClientEntry) { e.KickCount = 0 })
			continue
		}

		var newCount int
		e.Clients.Update(c.Client, func(e *domain.ClientEntry) {
			e.KickCount++
			newCount = e.KickCount
		})
		if newCount >= w.MinKickCount {
			due = append(due, KickDecision{
				Client: c.Client,
				Target: winner,
				Kick:   w.Kicking,
				BanTime: w.BanTime,
			})
			telemetry.KicksTotal.Inc()
		}
	}
	return due
}

// KickDecision is one client the kick sweep decided should receive a
// BTM steering hint (and, if Kick is set, a del_client deauth sent
// right after the hint).
type KickDecision struct {
	Client  domain.MAC
	Target  domain.APEntry
	Kick    bool
	BanTime int
}

