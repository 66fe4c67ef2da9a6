// Package replication implements peer replication (C6): serialising
// local mutations into the wire envelope, shipping them to every
// configured transport, and applying incoming events idempotently
// with suppress_replication so applied events never loop back out.
package replication

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/ports"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
	"github.com/lcalzada-xor/dawnd/internal/telemetry"
)

// Manager broadcasts local events to every configured PeerTransport
// and applies incoming ones to the local stores.
type Manager struct {
	transports []ports.PeerTransport
	logger     *slog.Logger

	probes  *store.ProbeStore
	clients *store.ClientStore
	aps     *store.APStore
	macs    *store.MACAllowList
	onUCI   func(domain.UCIPayload)
}

func NewManager(probes *store.ProbeStore, clients *store.ClientStore, aps *store.APStore, macs *store.MACAllowList, logger *slog.Logger) *Manager {
	return &Manager{probes: probes, clients: clients, aps: aps, macs: macs, logger: logger}
}

// AddTransport registers a transport events are broadcast on and
// incoming events are read from; call Run after all transports are
// registered.
func (m *Manager) AddTransport(t ports.PeerTransport) {
	m.transports = append(m.transports, t)
}

// Run starts one goroutine per transport applying its incoming
// events; it returns immediately, the goroutines run until ctx is
// cancelled.
func (m *Manager) Run(ctx context.Context) {
	for _, t := range m.transports {
		t := t
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-t.Incoming():
					if !ok {
						return
					}
					if err := m.Apply(ev); err != nil {
						m.logger.Warn("dropping malformed peer event", "method", ev.Method, "error", err)
					}
				}
			}
		}()
	}
}

func (m *Manager) broadcast(ctx context.Context, ev domain.Event) {
	for i, t := range m.transports {
		if err := t.Broadcast(ctx, ev); err != nil {
			m.logger.Warn("peer broadcast failed", "method", ev.Method, "error", err)
			telemetry.ReplicationErrorsTotal.WithLabelValues(transportLabel(i)).Inc()
		}
	}
}

func transportLabel(i int) string {
	return fmt.Sprintf("transport_%d", i)
}

// BroadcastProbe serialises a probe notification as a `probe` event.
func (m *Manager) BroadcastProbe(ctx context.Context, n domain.Notification) {
	payload, _ := json.Marshal(probeWire{
		BSSID: n.BSSID, Client: n.Address, Target: n.Target,
		Signal: n.Signal, Freq: n.Freq,
		HT: n.HTCapabilities, VHT: n.VHTCapabilities,
		RCPI: n.RCPI, RSNI: n.RSNI,
	})
	m.broadcast(ctx, domain.Event{Method: domain.EventProbe, Data: string(payload)})
}

// BroadcastDenied serialises a denied auth/assoc as a `setprobe`
// event: per §4.6, setprobe pre-creates a ProbeEntry on peers so a
// subsequent auth arriving at any of them will succeed.
func (m *Manager) BroadcastDenied(ctx context.Context, n domain.Notification) {
	payload, _ := json.Marshal(probeWire{
		BSSID: n.BSSID, Client: n.Address, Target: n.Target,
		Signal: n.Signal, Freq: n.Freq,
	})
	m.broadcast(ctx, domain.Event{Method: domain.EventSetProbe, Data: string(payload)})
}

// BroadcastDeauth serialises a deauth notification as a `deauth`
// event, before the local client deletion it accompanies (§4.5(b)).
func (m *Manager) BroadcastDeauth(ctx context.Context, n domain.Notification) {
	payload, _ := json.Marshal(deauthWire{Client: n.Address, Reason: n.Reason})
	m.broadcast(ctx, domain.Event{Method: domain.EventDeauth, Data: string(payload)})
}

// BroadcastBeaconReport serialises a synthesized beacon-report probe
// as a `beacon-report` event.
func (m *Manager) BroadcastBeaconReport(ctx context.Context, n domain.Notification) {
	payload, _ := json.Marshal(probeWire{
		BSSID: n.BSSID, Client: n.Address, RCPI: n.RCPI, RSNI: n.RSNI,
	})
	m.broadcast(ctx, domain.Event{Method: domain.EventBeaconReport, Data: string(payload)})
}

// BroadcastAddMAC serialises a set of MACs as an `addmac` event.
func (m *Manager) BroadcastAddMAC(ctx context.Context, addrs []domain.MAC) {
	payload, _ := json.Marshal(domain.AddMACPayload{Addrs: addrs})
	m.broadcast(ctx, domain.Event{Method: domain.EventAddMAC, Data: string(payload)})
}

// BroadcastClients serialises one session's client list as a
// `clients` event, mirroring send_blob_attr_via_network(b_domain,
// "clients") in ubus_get_clients_cb.
func (m *Manager) BroadcastClients(ctx context.Context, bssid domain.MAC, clients []domain.ClientInfo) {
	rows := make([]clientWireRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, clientWireRow{Client: c.Client, HT: c.HT, VHT: c.VHT, Signature: c.Signature})
	}
	payload, _ := json.Marshal(clientsWire{BSSID: bssid, Clients: rows})
	m.broadcast(ctx, domain.Event{Method: domain.EventClients, Data: string(payload)})
}

// BroadcastAP serialises one local AP's published fields as an `ap`
// event, the client/rrm polling loop's AP-list counterpart to
// BroadcastClients.
func (m *Manager) BroadcastAP(ctx context.Context, ap domain.APEntry) {
	payload, _ := json.Marshal(apWire{
		BSSID: ap.BSSID, SSID: ap.SSID, Freq: ap.Freq,
		HTSupport: ap.HTSupport, VHTSupport: ap.VHTSupport,
		ChannelUtilization: ap.ChannelUtilization, StationCount: ap.StationCount,
		NeighborReport: ap.NeighborReport,
	})
	m.broadcast(ctx, domain.Event{Method: domain.EventAP, Data: string(payload)})
}

// BroadcastUCI serialises the given metric and times tables as a `uci`
// event (§4.7). reload_config calls it with nil tables, so its event
// carries no parameter values.
func (m *Manager) BroadcastUCI(ctx context.Context, metric, times map[string]int) {
	payload, _ := json.Marshal(domain.UCIPayload{Metric: metric, Times: times})
	m.broadcast(ctx, domain.Event{Method: domain.EventUCI, Data: string(payload)})
}
