// Package mockradio is the in-process C11 fake RadioManager used for
// local testing and demo mode, grounded on the teacher's
// data-generator/scenario pattern (MockMode config flag, synthetic
// device feed) but emitting domain.Notification events instead of
// WebSocket snapshots.
package mockradio

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

var mockSSIDs = []string{"HomeNetwork", "Office-Network", "Guest-WiFi", "MyWiFi"}

// Radio is a synthetic RadioManager backing a fixed set of ifaces,
// each periodically emitting probe/auth/assoc/deauth notifications
// for a small pool of fake clients.
type Radio struct {
	ifaces  []string
	bssids  map[string]domain.MAC
	ssids   map[string]string
	clients []domain.MAC
	period  time.Duration
	rng     *rand.Rand

	chans map[string]chan domain.Notification

	mu         sync.Mutex
	cumBusy    map[string]uint64
	cumTotal   map[string]uint64
}

// New builds a mock radio manager with one synthetic AP per iface in
// ifaces and numClients synthetic stations probing all of them.
func New(ifaces []string, numClients int, period time.Duration, seed int64) *Radio {
	rng := rand.New(rand.NewSource(seed))
	r := &Radio{
		ifaces: ifaces,
		bssids: make(map[string]domain.MAC, len(ifaces)),
		ssids:  make(map[string]string, len(ifaces)),
		period: period,
		rng:    rng,
		chans:    make(map[string]chan domain.Notification, len(ifaces)),
		cumBusy:  make(map[string]uint64, len(ifaces)),
		cumTotal: make(map[string]uint64, len(ifaces)),
	}
	for i, iface := range ifaces {
		r.bssids[iface] = randomMAC(rng)
		r.ssids[iface] = mockSSIDs[i%len(mockSSIDs)]
	}
	for i := 0; i < numClients; i++ {
		r.clients = append(r.clients, randomMAC(rng))
	}
	return r
}

func randomMAC(rng *rand.Rand) domain.MAC {
	b := make([]byte, 6)
	rng.Read(b)
	b[0] |= 0x02 // locally administered, per the reference generator's vendor-prefix role
	mac, _ := domain.ParseMAC(fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5]))
	return mac
}

func (r *Radio) Discover(ctx context.Context) ([]string, error) {
	return r.ifaces, nil
}

// Notifications starts the synthetic feed for iface: every period it
// emits a probe from a random client, occasionally followed by an
// auth/assoc/deauth to exercise the full decision path.
func (r *Radio) Notifications(iface string) (<-chan domain.Notification, error) {
	bssid, ok := r.bssids[iface]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mock iface %s", domain.ErrNotFound, iface)
	}
	out := make(chan domain.Notification, 16)
	r.chans[iface] = out

	go func() {
		ticker := time.NewTicker(r.period)
		defer ticker.Stop()
		for range ticker.C {
			client := r.clients[r.rng.Intn(len(r.clients))]
			out <- domain.Notification{
				Method: domain.MethodProbe,
				Address: client, BSSID: bssid, SSID: r.ssids[iface],
				Signal: int32(-90 + r.rng.Intn(50)),
				Freq:   2412000,
			}
			switch r.rng.Intn(10) {
			case 0:
				out <- domain.Notification{Method: domain.MethodAuth, Address: client, BSSID: bssid}
			case 1:
				out <- domain.Notification{Method: domain.MethodAssoc, Address: client, BSSID: bssid}
			case 2:
				out <- domain.Notification{Method: domain.MethodDeauth, Address: client, BSSID: bssid, Reason: 1}
			}
		}
	}()
	return out, nil
}

func (r *Radio) GetClients(ctx context.Context, iface string) (domain.ClientsReport, error) {
	bssid, ok := r.bssids[iface]
	if !ok {
		return domain.ClientsReport{}, fmt.Errorf("%w: unknown mock iface %s", domain.ErrNotFound, iface)
	}
	infos := make([]domain.ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		infos = append(infos, domain.ClientInfo{Client: c, HT: true})
	}
	return domain.ClientsReport{
		BSSID:              bssid,
		SSID:               r.ssids[iface],
		HTSupport:          true,
		VHTSupport:         true,
		ChannelUtilization: 20 + r.rng.Intn(40),
		Clients:            infos,
	}, nil
}

func (r *Radio) RRMNeighborReportGetOwn(ctx context.Context, iface string) (string, error) {
	return "", nil
}

func (r *Radio) GetChannelUtilization(ctx context.Context, iface string) (busy, total uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cumBusy[iface] += uint64(20 + r.rng.Intn(40))
	r.cumTotal[iface] += 100
	return r.cumBusy[iface], r.cumTotal[iface], nil
}

func (r *Radio) RRMNeighborReportSet(ctx context.Context, iface string, entries []domain.NeighborReportEntry) error {
	return nil
}

func (r *Radio) RRMBeaconRequest(ctx context.Context, iface string, req domain.BeaconRequest) error {
	return nil
}

func (r *Radio) BSSMgmtEnable(ctx context.Context, iface string, flags domain.BSSMgmtEnable) error {
	return nil
}

func (r *Radio) DelClient(ctx context.Context, iface string, req domain.DelClient) error {
	return nil
}

func (r *Radio) WNMDisassocImminent(ctx context.Context, iface string, req domain.DisassocImminent) error {
	return nil
}

func (r *Radio) NotifyResponse(ctx context.Context, iface string, status int) error {
	return nil
}
