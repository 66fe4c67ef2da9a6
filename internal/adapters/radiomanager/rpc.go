package radiomanager

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// request issues method with params on iface's connection and decodes
// the single JSON-lines response into result (nil to discard it).
func (s *Socket) request(ctx context.Context, iface, method string, params, result any) error {
	if err := s.call(ctx, iface, method, params); err != nil {
		return err
	}
	conn, err := s.conn(iface)
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	}
	if result == nil {
		return nil
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%w: read %s response: %v", domain.ErrTransient, method, err)
		}
		return fmt.Errorf("%w: no response to %s", domain.ErrTransient, method)
	}
	return json.Unmarshal(scanner.Bytes(), result)
}

func (s *Socket) GetClients(ctx context.Context, iface string) (domain.ClientsReport, error) {
	var resp struct {
		BSSID              domain.MAC          `json:"bssid"`
		SSID               string              `json:"ssid"`
		HTSupport          bool                `json:"ht_supported"`
		VHTSupport         bool                `json:"vht_supported"`
		ChannelUtilization int                 `json:"channel_utilization"`
		NeighborReport     string              `json:"neighbor_report"`
		Clients            []domain.ClientInfo `json:"clients"`
	}
	if err := s.request(ctx, iface, "get_clients", nil, &resp); err != nil {
		return domain.ClientsReport{}, err
	}
	return domain.ClientsReport{
		BSSID:              resp.BSSID,
		SSID:               resp.SSID,
		HTSupport:          resp.HTSupport,
		VHTSupport:         resp.VHTSupport,
		ChannelUtilization: resp.ChannelUtilization,
		NeighborReport:     resp.NeighborReport,
		Clients:            resp.Clients,
	}, nil
}

func (s *Socket) RRMNeighborReportGetOwn(ctx context.Context, iface string) (string, error) {
	var resp struct {
		NeighborReport string `json:"neighbor_report"`
	}
	if err := s.request(ctx, iface, "rrm_nr_get_own", nil, &resp); err != nil {
		return "", err
	}
	return resp.NeighborReport, nil
}

func (s *Socket) GetChannelUtilization(ctx context.Context, iface string) (busy, total uint64, err error) {
	var resp struct {
		Busy  uint64 `json:"busy_time"`
		Total uint64 `json:"total_time"`
	}
	if err := s.request(ctx, iface, "get_channel_utilization", nil, &resp); err != nil {
		return 0, 0, err
	}
	return resp.Busy, resp.Total, nil
}

func (s *Socket) RRMNeighborReportSet(ctx context.Context, iface string, entries []domain.NeighborReportEntry) error {
	return s.request(ctx, iface, "rrm_nr_set", struct {
		Entries []domain.NeighborReportEntry `json:"entries"`
	}{entries}, nil)
}

func (s *Socket) RRMBeaconRequest(ctx context.Context, iface string, req domain.BeaconRequest) error {
	return s.request(ctx, iface, "rrm_beacon_req", req, nil)
}

func (s *Socket) BSSMgmtEnable(ctx context.Context, iface string, flags domain.BSSMgmtEnable) error {
	return s.request(ctx, iface, "bss_mgmt_enable", flags, nil)
}

func (s *Socket) DelClient(ctx context.Context, iface string, req domain.DelClient) error {
	return s.request(ctx, iface, "del_client", req, nil)
}

func (s *Socket) WNMDisassocImminent(ctx context.Context, iface string, req domain.DisassocImminent) error {
	return s.request(ctx, iface, "wnm_disassoc_imminent", req, nil)
}

func (s *Socket) NotifyResponse(ctx context.Context, iface string, status int) error {
	return s.call(ctx, iface, "notify_response", struct {
		Status int `json:"status"`
	}{status})
}
