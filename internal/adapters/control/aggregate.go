// Package control implements the HTTP+JSON control surface (C7):
// add_mac, get_hearing_map, get_network, reload_config, the
// domain-stack network.pdf export, and the websocket hearing-map push.
package control

import (
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/metric"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

// HearingMap implements get_hearing_map's grouped iteration over the
// probe and AP stores, held under the probe lock so no aging sweep
// can interleave (§5).
func HearingMap(probes *store.ProbeStore, aps *store.APStore, weights domain.Weights) map[string]map[string]map[string]domain.HearingAP {
	out := make(map[string]map[string]map[string]domain.HearingAP)

	apByBSSID := make(map[domain.MAC]domain.APEntry)
	aps.Range(func(ap domain.APEntry) bool {
		apByBSSID[ap.BSSID] = ap
		return true
	})

	probes.Range(func(p domain.ProbeEntry) bool {
		ap, ok := apByBSSID[p.BSSID]
		if !ok {
			return true
		}
		client := string(p.Client)
		bySSID, ok := out[ap.SSID]
		if !ok {
			bySSID = make(map[string]map[string]domain.HearingAP)
			out[ap.SSID] = bySSID
		}
		byClient, ok := bySSID[client]
		if !ok {
			byClient = make(map[string]domain.HearingAP)
			bySSID[client] = byClient
		}
		byClient[string(p.BSSID)] = domain.HearingAP{
			Signal: p.Signal, RCPI: p.RCPI, RSNI: p.RSNI, Freq: p.Freq,
			HT: p.HT, VHT: p.VHT,
			ChannelUtilization: ap.ChannelUtilization,
			NumSTA:             ap.StationCount,
			HTSupport:          ap.HTSupport, VHTSupport: ap.VHTSupport,
			Score: metric.Score(p, ap, weights),
		}
		return true
	})
	return out
}

// Network implements get_network: a nested {ssid: {bssid: {ap fields,
// clients}}} table with local=true marking APs matching any session's
// own bssid (localBSSIDs), and each client's most recent signal drawn
// from the probe store entry matching (bssid, client).
func Network(clients *store.ClientStore, aps *store.APStore, probes *store.ProbeStore, localBSSIDs map[domain.MAC]bool) map[string]map[string]domain.NetworkAP {
	out := make(map[string]map[string]domain.NetworkAP)

	clientsByBSSID := make(map[domain.MAC][]domain.ClientEntry)
	clients.Range(func(c domain.ClientEntry) bool {
		clientsByBSSID[c.BSSID] = append(clientsByBSSID[c.BSSID], c)
		return true
	})

	aps.Range(func(ap domain.APEntry) bool {
		bySSID, ok := out[ap.SSID]
		if !ok {
			bySSID = make(map[string]domain.NetworkAP)
			out[ap.SSID] = bySSID
		}
		row := domain.NetworkAP{
			Freq: ap.Freq, HTSupport: ap.HTSupport, VHTSupport: ap.VHTSupport,
			ChannelUtilization: ap.ChannelUtilization, StationCount: ap.StationCount,
			Local:   localBSSIDs[ap.BSSID],
			Clients: make(map[string]domain.NetworkClient),
		}
		for _, c := range clientsByBSSID[ap.BSSID] {
			var signal int32
			if p, ok := probes.Get(domain.ProbeKey{BSSID: c.BSSID, Client: c.Client}); ok {
				signal = p.Signal
			}
			row.Clients[string(c.Client)] = domain.NetworkClient{
				Signature: c.Signature, HT: c.HT, VHT: c.VHT,
				KickCount: c.KickCount, Signal: signal,
			}
		}
		bySSID[string(ap.BSSID)] = row
		return true
	})
	return out
}
