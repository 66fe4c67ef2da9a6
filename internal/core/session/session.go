// Package session implements the radio-manager session (C5): per-
// local-radio subscription lifecycle, notification dispatch and
// outbound RPC, and channel-utilisation tracking.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/lcalzada-xor/dawnd/internal/core/clock"
	"github.com/lcalzada-xor/dawnd/internal/core/decision"
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/ports"
	"github.com/lcalzada-xor/dawnd/internal/core/replication"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
	"github.com/lcalzada-xor/dawnd/internal/telemetry"
)

// Session is one HostapdSession bundle: subscription state plus the
// notification dispatch loop for a single local radio iface.
type Session struct {
	mu    sync.Mutex
	state domain.HostapdSession

	radio   ports.RadioManager
	engine  *decision.Engine
	peers   *replication.Manager
	clock   clock.Clock
	logger  *slog.Logger

	cancel context.CancelFunc
}

// Manager owns the set of Sessions, keyed by iface, and the discovery
// loop that opens a new Session for every radio the RadioManager
// reports that isn't already known. Per §9's design note, sessions
// live in a collection keyed by iface rather than a fixed array, and
// are never removed once created (only their subscribed flag
// toggles).
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	radio  ports.RadioManager
	engine *decision.Engine
	peers  *replication.Manager
	clock  clock.Clock
	logger *slog.Logger
	peerID string
}

func NewManager(radio ports.RadioManager, engine *decision.Engine, peers *replication.Manager, clk clock.Clock, logger *slog.Logger, peerID string) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		radio:    radio,
		engine:   engine,
		peers:    peers,
		clock:    clk,
		logger:   logger,
		peerID:   peerID,
	}
}

// DiscoverOnce scans for radio ifaces and opens a Session for any new
// one found, per §4.5(a); a known session that has dropped back to
// Unsubscribed is started again. Call this from the clock wheel.
func (m *Manager) DiscoverOnce(ctx context.Context) {
	ifaces, err := m.radio.Discover(ctx)
	if err != nil {
		m.logger.Warn("radio manager discovery failed", "error", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, iface := range ifaces {
		if s, ok := m.sessions[iface]; ok {
			s.mu.Lock()
			rearm := s.state.State == domain.SessionUnsubscribed
			s.mu.Unlock()
			if rearm {
				s.start(ctx)
			}
			continue
		}
		s := m.newSession(iface)
		m.sessions[iface] = s
		s.start(ctx)
	}
}

// Sessions returns a snapshot of every known session's state.
func (m *Manager) Sessions() []domain.HostapdSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HostapdSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		out = append(out, s.state)
		s.mu.Unlock()
	}
	return out
}

// reasonSteerBetterAPAvailable is the disassoc reason code del_client
// carries when the kick sweep forces a client off right after sending
// it a BTM steering hint.
const reasonSteerBetterAPAvailable = 2

// sessionByBSSID returns the session whose local AP matches bssid, or
// nil if none does. Callers must not hold m.mu.
func (m *Manager) sessionByBSSID(bssid domain.MAC) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.mu.Lock()
		match := s.state.BSSID == bssid
		s.mu.Unlock()
		if match {
			return s
		}
	}
	return nil
}

// DispatchKickSweep implements §4.3's kick-sweep RPC side: for every
// due KickDecision it sends the BTM steering hint to the client's
// current local AP, and, if Kick is set, sends del_client with deauth
// in the same pass, right after the hint; it does not wait to see
// whether the client follows the hint.
func (m *Manager) DispatchKickSweep(ctx context.Context, decisions []decision.KickDecision) {
	for _, d := range decisions {
		client, ok := m.engine.Clients.Get(d.Client)
		if !ok {
			continue
		}
		s := m.sessionByBSSID(client.BSSID)
		if s == nil {
			continue
		}

		rpcCtx, cancel := context.WithTimeout(ctx, ports.RPCTimeout)
		err := m.radio.WNMDisassocImminent(rpcCtx, s.state.Iface, domain.DisassocImminent{
			Addr:      d.Client,
			Duration:  d.BanTime,
			Abridged:  true,
			Neighbors: []string{d.Target.NeighborReport},
		})
		cancel()
		if err != nil {
			m.logger.Warn("wnm_disassoc_imminent failed", "client", d.Client, "error", err)
			continue
		}
		m.logger.Info("kick sweep steering client", "client", d.Client, "target", d.Target.BSSID, "ban_time", d.BanTime)

		if !d.Kick {
			continue
		}
		rpcCtx, cancel = context.WithTimeout(ctx, ports.RPCTimeout)
		err = m.radio.DelClient(rpcCtx, s.state.Iface, domain.DelClient{
			Addr:    d.Client,
			Reason:  reasonSteerBetterAPAvailable,
			Deauth:  1,
			BanTime: d.BanTime,
		})
		cancel()
		if err != nil {
			m.logger.Warn("del_client failed", "client", d.Client, "error", err)
		}
	}
}

// PollClients implements §4.5(c)'s client/rrm polling loop: for every
// subscribed session it fetches the current client list and channel
// utilisation from the radio manager, refreshes the session's own
// published fields, repopulates ClientStore/APStore, and broadcasts
// both to peers, mirroring ubus_get_clients_cb and
// update_channel_utilization. Call this from the clock wheel on
// cfg.UpdateClientPeriod.
func (m *Manager) PollClients(ctx context.Context, chanUtilAvgPeriod int) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		subscribed := s.state.State == domain.SessionSubscribed
		iface := s.state.Iface
		s.mu.Unlock()
		if !subscribed {
			continue
		}

		rpcCtx, cancel := context.WithTimeout(ctx, ports.RPCTimeout)
		report, err := m.radio.GetClients(rpcCtx, iface)
		cancel()
		if err != nil {
			m.logger.Warn("get_clients failed", "iface", iface, "error", err)
			continue
		}

		rpcCtx, cancel = context.WithTimeout(ctx, ports.RPCTimeout)
		nr, err := m.radio.RRMNeighborReportGetOwn(rpcCtx, iface)
		cancel()
		if err != nil {
			m.logger.Warn("rrm_nr_get_own failed", "iface", iface, "error", err)
		} else {
			report.NeighborReport = nr
		}

		s.mu.Lock()
		s.state.BSSID = report.BSSID
		s.state.SSID = report.SSID
		s.state.HTSupport = report.HTSupport
		s.state.VHTSupport = report.VHTSupport
		s.state.NeighborReport = report.NeighborReport
		s.mu.Unlock()

		now := m.clock.Now()
		for _, c := range report.Clients {
			m.engine.Clients.Insert(domain.ClientEntry{
				BSSID: report.BSSID, Client: c.Client, HT: c.HT, VHT: c.VHT,
				Signature: c.Signature, Time: now,
			}, store.InsertPolicy{})
		}

		m.engine.APs.Insert(domain.APEntry{
			BSSID: report.BSSID, SSID: report.SSID,
			HTSupport: report.HTSupport, VHTSupport: report.VHTSupport,
			ChannelUtilization: report.ChannelUtilization,
			StationCount:       len(report.Clients),
			NeighborReport:     report.NeighborReport,
			Local:              true,
			Time:               now,
		}, store.InsertPolicy{SortAfterInsert: true})

		m.peers.BroadcastClients(ctx, report.BSSID, report.Clients)
		if ap, ok := m.engine.APs.Get(report.BSSID); ok {
			m.peers.BroadcastAP(ctx, ap)
		}

		rpcCtx, cancel = context.WithTimeout(ctx, ports.RPCTimeout)
		err = m.radio.RRMNeighborReportSet(rpcCtx, iface, m.neighborReportTable())
		cancel()
		if err != nil {
			m.logger.Warn("rrm_nr_set failed", "iface", iface, "error", err)
		}

		rpcCtx, cancel = context.WithTimeout(ctx, ports.RPCTimeout)
		busy, total, err := m.radio.GetChannelUtilization(rpcCtx, iface)
		cancel()
		if err != nil {
			m.logger.Warn("get_channel_utilization failed", "iface", iface, "error", err)
			continue
		}
		s.mu.Lock()
		lastBusy, lastTotal := s.state.ChanUtil.LastBusyTime, s.state.ChanUtil.LastTotalTime
		s.state.ChanUtil.LastBusyTime, s.state.ChanUtil.LastTotalTime = busy, total
		s.mu.Unlock()
		if lastBusy == 0 && lastTotal == 0 {
			continue // first sample: no prior counters to difference against
		}
		s.UpdateChanUtil(busy-lastBusy, total-lastTotal, chanUtilAvgPeriod, m.engine.APs)
	}
}

// RequestBeaconReports implements the beacon-report request timer: for
// every subscribed session it sends an rrm_beacon_req to each client
// currently associated to that session's local AP, mirroring
// update_beacon_reports's iteration over the subscribed hostapd list.
// The caller is responsible for not invoking this when the period is
// configured as 0 (disabled).
func (m *Manager) RequestBeaconReports(ctx context.Context) {
	w := m.engine.Weights()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		subscribed := s.state.State == domain.SessionSubscribed
		iface, bssid := s.state.Iface, s.state.BSSID
		s.mu.Unlock()
		if !subscribed {
			continue
		}

		var clients []domain.MAC
		m.engine.Clients.Range(func(c domain.ClientEntry) bool {
			if c.BSSID == bssid {
				clients = append(clients, c.Client)
			}
			return true
		})

		for _, client := range clients {
			rpcCtx, cancel := context.WithTimeout(ctx, ports.RPCTimeout)
			err := m.radio.RRMBeaconRequest(rpcCtx, iface, domain.BeaconRequest{
				Addr:     client,
				OpClass:  w.BeaconOpClass,
				Channel:  w.BeaconChannel,
				Duration: w.BeaconDuration,
				Mode:     w.BeaconMode,
			})
			cancel()
			if err != nil {
				m.logger.Warn("rrm_beacon_req failed", "iface", iface, "client", client, "error", err)
			}
		}
	}
}

// neighborReportTable builds the rrm_nr_set payload from every known
// AP's neighbor report, mirroring ubus_set_nr's iteration over
// ap_array.
func (m *Manager) neighborReportTable() []domain.NeighborReportEntry {
	var entries []domain.NeighborReportEntry
	m.engine.APs.Range(func(ap domain.APEntry) bool {
		if ap.NeighborReport == "" {
			return true
		}
		entries = append(entries, domain.NeighborReportEntry{
			BSSIDLowerHex:  strings.ToLower(strings.ReplaceAll(string(ap.BSSID), ":", "")),
			SSID:           ap.SSID,
			NeighborReport: ap.NeighborReport,
		})
		return true
	})
	return entries
}

// Stop cancels every session's dispatch loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.cancel != nil {
			s.cancel()
		}
	}
}

func (m *Manager) newSession(iface string) *Session {
	return &Session{
		state: domain.HostapdSession{
			PeerID: m.peerID,
			Iface:  iface,
			State:  domain.SessionWaitingForObject,
		},
		radio:  m.radio,
		engine: m.engine,
		peers:  m.peers,
		clock:  m.clock,
		logger: m.logger.With("iface", iface),
	}
}

func (s *Session) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	notifs, err := s.radio.Notifications(s.state.Iface)
	if err != nil {
		s.logger.Warn("subscribe failed, will re-arm on next discovery tick", "error", err)
		s.mu.Lock()
		s.state.State = domain.SessionUnsubscribed
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.state.State = domain.SessionSubscribed
	s.mu.Unlock()

	rpcCtx, cancel := context.WithTimeout(ctx, ports.RPCTimeout)
	err = s.radio.BSSMgmtEnable(rpcCtx, s.state.Iface, domain.BSSMgmtEnable{
		NeighborReport: true, BeaconReport: true, BSSTransition: true,
	})
	cancel()
	if err != nil {
		s.logger.Warn("bss_mgmt_enable failed", "error", err)
	}

	go s.dispatchLoop(ctx, notifs)
}

// dispatchLoop implements §4.5(b): each message is augmented with the
// session's own bssid/ssid, then routed to the matching handler.
func (s *Session) dispatchLoop(ctx context.Context, notifs <-chan domain.Notification) {
	defer func() {
		s.mu.Lock()
		s.state.State = domain.SessionUnsubscribed
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifs:
			if !ok {
				return
			}
			s.mu.Lock()
			n.BSSID = s.state.BSSID
			n.SSID = s.state.SSID
			s.mu.Unlock()
			s.handle(ctx, n)
		}
	}
}

// wlanStatusSuccess is the status code notify_response carries back
// when a request is allowed; it mirrors WLAN_STATUS_SUCCESS, the value
// hostapd_notify returns for every non-denying code path.
const wlanStatusSuccess = 0

func (s *Session) handle(ctx context.Context, n domain.Notification) {
	telemetry.NotificationsTotal.WithLabelValues(s.state.Iface, string(n.Method)).Inc()
	status := wlanStatusSuccess
	switch n.Method {
	case domain.MethodProbe:
		status = s.handleProbe(ctx, n)
	case domain.MethodAuth:
		status = s.handleVerdict(ctx, n, s.engine.HandleAuth(n))
	case domain.MethodAssoc:
		status = s.handleVerdict(ctx, n, s.engine.HandleAssoc(n))
	case domain.MethodDeauth:
		s.handleDeauth(ctx, n)
	case domain.MethodBeaconReport:
		s.handleBeaconReport(n)
	}
	rpcCtx, cancel := context.WithTimeout(ctx, ports.RPCTimeout)
	defer cancel()
	if err := s.radio.NotifyResponse(rpcCtx, s.state.Iface, status); err != nil {
		s.logger.Warn("notify_response failed", "error", err)
	}
}

func (s *Session) handleProbe(ctx context.Context, n domain.Notification) int {
	verdict := s.engine.HandleProbe(n)
	s.peers.BroadcastProbe(ctx, n)
	if verdict.Allow {
		return wlanStatusSuccess
	}
	return verdict.DenyReasonCode
}

func (s *Session) handleVerdict(ctx context.Context, n domain.Notification, v decision.Verdict) int {
	if v.Allow {
		return wlanStatusSuccess
	}
	s.peers.BroadcastDenied(ctx, n)
	return v.DenyReasonCode
}

func (s *Session) handleDeauth(ctx context.Context, n domain.Notification) {
	s.peers.BroadcastDeauth(ctx, n)
	s.engine.Clients.Delete(n.Address)
}

// handleBeaconReport implements §4.5's beacon-report ingest path.
func (s *Session) handleBeaconReport(n domain.Notification) {
	id := domain.ProbeKey{BSSID: n.BSSID, Client: n.Address}
	if s.engine.Probes.UpdateRCPIRSNI(id, n.RCPI, n.RSNI, s.clock.Now()) {
		return
	}
	synthetic := domain.ProbeEntry{
		BSSID:   n.BSSID,
		Client:  n.Address,
		Counter: s.engine.Weights().MinProbeCount,
		Signal:  0,
		HT:      false,
		VHT:     false,
		RCPI:    n.RCPI,
		RSNI:    n.RSNI,
		Time:    s.clock.Now(),
	}
	s.engine.Probes.Insert(synthetic, store.InsertPolicy{SortAfterInsert: true})
	s.peers.BroadcastBeaconReport(context.Background(), n)
}

// UpdateChanUtil implements §4.5's channel-utilisation tracking: a
// running sum of busy/total deltas, averaged every avgPeriod samples
// and written back into the session's published utilisation, then
// into the local APEntry so get_network reflects it, resolving the
// open question in §11 in favor of the stated assumption.
func (s *Session) UpdateChanUtil(busyDelta, totalDelta uint64, avgPeriod int, aps *store.APStore) {
	if totalDelta == 0 {
		return
	}
	s.mu.Lock()
	s.state.ChanUtil.SumRatio += float64(busyDelta) / float64(totalDelta)
	s.state.ChanUtil.Samples++
	var avg int
	var bssid domain.MAC
	ready := s.state.ChanUtil.Samples >= avgPeriod
	if ready {
		avg = int((s.state.ChanUtil.SumRatio / float64(s.state.ChanUtil.Samples)) * 255)
		s.state.ChanUtilAvg = avg
		s.state.ChanUtil = domain.ChanUtilAccumulator{}
		bssid = s.state.BSSID
	}
	s.mu.Unlock()

	if ready && aps != nil {
		aps.Update(bssid, func(ap *domain.APEntry) { ap.ChannelUtilization = avg })
	}
}

