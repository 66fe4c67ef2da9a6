// Package ports defines the boundaries between the core engine and
// everything the specification treats as an external collaborator:
// the radio manager, the peer transport, and peer discovery.
package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// RadioManager is the external collaborator a Session talks to: the
// real implementation speaks whatever RPC bus the deployment's radio
// firmware exposes (ubus or similar); this repository ships a
// JSON-over-Unix-socket adapter and an in-process mock satisfying the
// same interface (§1: "the radio manager RPC transport wire encoding
// ... is treated as an external collaborator").
type RadioManager interface {
	// Notifications returns the channel the manager delivers
	// probe/auth/assoc/deauth/beacon-report messages on for iface.
	Notifications(iface string) (<-chan domain.Notification, error)

	// GetClients returns iface's own AP fields and its current client
	// list in one combined report, mirroring the blob the manager
	// broadcasts to peers and parses into the local stores.
	GetClients(ctx context.Context, iface string) (domain.ClientsReport, error)
	// RRMNeighborReportGetOwn returns this AP's own neighbor report.
	RRMNeighborReportGetOwn(ctx context.Context, iface string) (string, error)
	// GetChannelUtilization returns the cumulative channel busy/total
	// time counters iface's radio has observed; the caller differences
	// successive samples and feeds the delta to the channel-utilisation
	// average.
	GetChannelUtilization(ctx context.Context, iface string) (busy, total uint64, err error)
	// RRMNeighborReportSet pushes the neighbor report table.
	RRMNeighborReportSet(ctx context.Context, iface string, entries []domain.NeighborReportEntry) error
	// RRMBeaconRequest asks a client to send a beacon report.
	RRMBeaconRequest(ctx context.Context, iface string, req domain.BeaconRequest) error
	// BSSMgmtEnable turns on neighbor/beacon report and BSS transition.
	BSSMgmtEnable(ctx context.Context, iface string, flags domain.BSSMgmtEnable) error
	// DelClient disassociates/deauthenticates a client.
	DelClient(ctx context.Context, iface string, req domain.DelClient) error
	// WNMDisassocImminent sends a BTM steering hint.
	WNMDisassocImminent(ctx context.Context, iface string, req domain.DisassocImminent) error
	// NotifyResponse acknowledges a handled notification, carrying the
	// status the handler decided on: WLAN_STATUS_SUCCESS (0) to allow,
	// or the configured deny/unable-to-handle reason code to steer the
	// client away (§1, §4.3).
	NotifyResponse(ctx context.Context, iface string, status int) error

	// Discover scans the configured socket directory for available
	// radio ifaces (excluding the "global" entry per §6) and returns
	// the set currently present.
	Discover(ctx context.Context) ([]string, error)
}

// RPCTimeout is the deadline applied to every outbound radio-manager
// RPC per §5 ("all have a 1s deadline").
const RPCTimeout = time.Second

// PeerTransport is the external collaborator for peer replication
// (§4.6): it ships local events to every peer and delivers incoming
// ones. The three transport modes (plaintext UDP, encrypted UDP, TCP)
// are adapters satisfying this one interface.
type PeerTransport interface {
	Broadcast(ctx context.Context, ev domain.Event) error
	Incoming() <-chan domain.Event
	Close() error
}

// PeerDiscovery is the external collaborator for umdns-equivalent
// peer discovery (§4.6): it is queried on a timer and returns the
// current set of (host, addr, port) peers advertising the service.
type PeerDiscovery interface {
	Discover(ctx context.Context) ([]Peer, error)
}

// Peer is one discovered TCP peer.
type Peer struct {
	Host string
	Addr string
	Port int
}
