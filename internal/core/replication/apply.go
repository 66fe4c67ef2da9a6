package replication

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

// probeWire mirrors the radio notification fields for the probe,
// setprobe and beacon-report replication methods (§6).
type probeWire struct {
	BSSID  domain.MAC `json:"bssid"`
	Client domain.MAC `json:"client"`
	Target domain.MAC `json:"target"`
	Signal int32      `json:"signal"`
	Freq   int32      `json:"freq"`
	HT     bool       `json:"ht_capabilities"`
	VHT    bool       `json:"vht_capabilities"`
	RCPI   int16      `json:"rcpi"`
	RSNI   int16      `json:"rsni"`
}

type deauthWire struct {
	Client domain.MAC `json:"client"`
	Reason uint32     `json:"reason"`
}

// clientWireRow is one station row of a `clients` event.
type clientWireRow struct {
	Client    domain.MAC `json:"client"`
	HT        bool       `json:"ht"`
	VHT       bool       `json:"vht"`
	Signature string     `json:"signature,omitempty"`
}

// clientsWire mirrors the client half of ubus_get_clients_cb's
// combined blob: a peer's local AP's client list.
type clientsWire struct {
	BSSID   domain.MAC      `json:"bssid"`
	Clients []clientWireRow `json:"clients"`
}

// apWire mirrors the AP-fields half of the same blob.
type apWire struct {
	BSSID              domain.MAC `json:"bssid"`
	SSID               string     `json:"ssid"`
	Freq               int32      `json:"freq"`
	HTSupport          bool       `json:"ht_supported"`
	VHTSupport         bool       `json:"vht_supported"`
	ChannelUtilization int        `json:"channel_utilization"`
	StationCount       int        `json:"num_sta"`
	NeighborReport     string     `json:"neighbor_report"`
}

// Apply parses ev by method and applies it to the local stores with
// suppress_replication=true, per §4.6. Applications are idempotent:
// inserts merge rather than duplicate. A parse error drops the single
// message without affecting the peer connection (§7).
func (m *Manager) Apply(ev domain.Event) error {
	now := time.Now()
	switch ev.Method {
	case domain.EventProbe, domain.EventSetProbe, domain.EventBeaconReport:
		var w probeWire
		if err := json.Unmarshal([]byte(ev.Data), &w); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		m.probes.Insert(domain.ProbeEntry{
			BSSID: w.BSSID, Client: w.Client, Target: w.Target,
			Signal: w.Signal, Freq: w.Freq, HT: w.HT, VHT: w.VHT,
			RCPI: w.RCPI, RSNI: w.RSNI, Time: now,
		}, store.InsertPolicy{SortAfterInsert: true, BumpCounterIfPresent: true, SuppressReplication: true})
		return nil

	case domain.EventDeauth:
		var w deauthWire
		if err := json.Unmarshal([]byte(ev.Data), &w); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		m.clients.Delete(w.Client)
		return nil

	case domain.EventAddMAC:
		var p domain.AddMACPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		_, err := m.macs.Add(p.Addrs)
		return err

	case domain.EventUCI:
		// The orchestrator owns configuration; it registers its own
		// handler for this method via OnUCI before Run is called.
		if m.onUCI != nil {
			var p domain.UCIPayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
			}
			m.onUCI(p)
		}
		return nil

	case domain.EventClients:
		var w clientsWire
		if err := json.Unmarshal([]byte(ev.Data), &w); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		for _, c := range w.Clients {
			m.clients.Insert(domain.ClientEntry{
				BSSID: w.BSSID, Client: c.Client, HT: c.HT, VHT: c.VHT,
				Signature: c.Signature, Time: now,
			}, store.InsertPolicy{SuppressReplication: true})
		}
		return nil

	case domain.EventAP:
		var w apWire
		if err := json.Unmarshal([]byte(ev.Data), &w); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		m.aps.Insert(domain.APEntry{
			BSSID: w.BSSID, SSID: w.SSID, Freq: w.Freq,
			HTSupport: w.HTSupport, VHTSupport: w.VHTSupport,
			ChannelUtilization: w.ChannelUtilization, StationCount: w.StationCount,
			NeighborReport: w.NeighborReport, Local: false, Time: now,
		}, store.InsertPolicy{SortAfterInsert: true, SuppressReplication: true})
		return nil

	default:
		return fmt.Errorf("%w: unknown replication method %q", domain.ErrInvalidArgument, ev.Method)
	}
}

// OnUCI registers the callback invoked when a `uci` event is applied.
func (m *Manager) OnUCI(fn func(domain.UCIPayload)) {
	m.onUCI = fn
}
