// Package app wires every component into the running engine, playing
// the role of the teacher's Application: a facade orchestrating
// services and infrastructure, bootstrapped in a fixed order and torn
// down the same way in reverse.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/dawnd/internal/adapters/control"
	"github.com/lcalzada-xor/dawnd/internal/adapters/mockradio"
	"github.com/lcalzada-xor/dawnd/internal/adapters/peertransport"
	"github.com/lcalzada-xor/dawnd/internal/adapters/radiomanager"
	"github.com/lcalzada-xor/dawnd/internal/config"
	"github.com/lcalzada-xor/dawnd/internal/core/clock"
	"github.com/lcalzada-xor/dawnd/internal/core/decision"
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/ports"
	"github.com/lcalzada-xor/dawnd/internal/core/replication"
	"github.com/lcalzada-xor/dawnd/internal/core/session"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

// Engine aggregates the four stores, the decision engine, the
// radio-manager session set, peer replication, the control surface,
// and the timer wheel, playing the role of the teacher's Application.
type Engine struct {
	cfg atomic.Pointer[config.Config]

	probes  *store.ProbeStore
	clients *store.ClientStore
	aps     *store.APStore
	denied  *store.DeniedStore
	macs    *store.MACAllowList

	decisionEngine *decision.Engine
	sessions       *session.Manager
	peers          *replication.Manager
	control        *control.Server
	discovery      ports.PeerDiscovery
	tcpTransport   *peertransport.TCP
	advertiseStop  func()

	wheel  clock.Wheel
	logger *slog.Logger
}

// New bootstraps every component in the teacher's order: stores, the
// radio-manager transport (real socket or mock), peer transport and
// discovery, replication, and the control server.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	e := &Engine{logger: logger}
	e.cfg.Store(cfg)

	e.probes = store.NewProbeStore()
	e.clients = store.NewClientStore()
	e.aps = store.NewAPStore()
	e.denied = store.NewDeniedStore()

	macs, err := store.NewMACAllowList(cfg.MACListPath)
	if err != nil {
		return nil, fmt.Errorf("load mac allow-list: %w", err)
	}
	e.macs = macs

	e.decisionEngine = &decision.Engine{
		Probes: e.probes, Clients: e.clients, APs: e.aps, Denied: e.denied, MACs: e.macs,
		Clock:   clock.System{},
		Weights: func() domain.Weights { return e.cfg.Load().Weights },
	}

	var radio ports.RadioManager
	if cfg.MockMode {
		radio = mockradio.New(cfg.MockIfaces, cfg.MockClients, 2*time.Second, 1)
		logger.Info("radio manager running in mock mode", "ifaces", cfg.MockIfaces)
	} else {
		radio = radiomanager.New(cfg.HostapdSocketDir, logger)
	}

	e.peers = replication.NewManager(e.probes, e.clients, e.aps, e.macs, logger)
	e.peers.OnUCI(func(p domain.UCIPayload) {
		logger.Info("applied peer configuration update", "times", p.Times)
	})

	transport, err := e.buildPeerTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("build peer transport: %w", err)
	}
	e.peers.AddTransport(transport)

	e.sessions = session.NewManager(radio, e.decisionEngine, e.peers, clock.System{}, logger, cfg.PeerID)

	e.control = control.NewServer(
		cfg.Addr, e.probes, e.clients, e.aps, e.macs,
		func() domain.Weights { return e.cfg.Load().Weights },
		e.sessions, e.peers, e.reload, logger,
	)

	return e, nil
}

// buildPeerTransport selects one of the three §4.6 transports per
// configuration; for TCP it also starts mDNS discovery of peers and
// advertises this node's own service.
func (e *Engine) buildPeerTransport(cfg *config.Config) (ports.PeerTransport, error) {
	switch cfg.PeerTransportMode {
	case config.PeerTransportEncryptedUDP:
		return peertransport.NewEncryptedUDP(cfg.PeerListenAddr, cfg.PeerAddrs, cfg.PeerEncryptionKey, e.logger)

	case config.PeerTransportTCP:
		t, err := peertransport.NewTCP(cfg.PeerListenAddr, e.logger)
		if err != nil {
			return nil, err
		}
		t.UpdatePeers(cfg.PeerAddrs)
		e.tcpTransport = t

		mdns, err := peertransport.NewMDNS(cfg.PeerDiscoveryPeriod)
		if err != nil {
			e.logger.Warn("mdns discovery unavailable, relying on static peer-addrs", "error", err)
			return t, nil
		}
		e.discovery = mdns

		if _, portStr, splitErr := net.SplitHostPort(cfg.PeerListenAddr); splitErr == nil {
			if port, convErr := strconv.Atoi(portStr); convErr == nil {
				stop, advErr := peertransport.Advertise("dawnd", cfg.PeerListenAddr, port)
				if advErr != nil {
					e.logger.Warn("mdns advertise failed", "error", advErr)
				} else {
					e.advertiseStop = stop
				}
			}
		}
		return t, nil

	default:
		return peertransport.NewUDP(cfg.PeerListenAddr, cfg.PeerAddrs, e.logger)
	}
}

// reload re-reads configuration and atomically swaps it in; a parse
// failure leaves the previously loaded config in place (§7).
func (e *Engine) reload() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg.Store(cfg)
	e.peers.BroadcastUCI(context.Background(), nil, nil)
	return nil
}

// Run starts the session-discovery loop, the four aging tickers, the
// kick-sweep ticker, the denied-request-processor ticker, the peer-
// discovery ticker, and the HTTP server, then blocks until ctx is
// cancelled, mirroring the teacher's Run/errChan pattern.
func (e *Engine) Run(ctx context.Context) error {
	cfg := e.cfg.Load()

	e.peers.Run(ctx)

	e.wheel.Every(ctx, cfg.DiscoverPeriod, func() { e.sessions.DiscoverOnce(ctx) })
	e.wheel.Every(ctx, cfg.ProbeTTL/2, func() { e.probes.Age(time.Now(), e.cfg.Load().ProbeTTL) })
	e.wheel.Every(ctx, cfg.ClientTTL/2, func() { e.clients.Age(time.Now(), e.cfg.Load().ClientTTL) })
	e.wheel.Every(ctx, cfg.APTTL/2, func() { e.aps.Age(time.Now(), e.cfg.Load().APTTL) })
	e.wheel.Every(ctx, cfg.DeniedTTL/2, func() { e.denied.Age(time.Now(), e.cfg.Load().DeniedTTL) })
	e.wheel.Every(ctx, cfg.KickSweepPeriod, func() {
		e.sessions.DispatchKickSweep(ctx, e.decisionEngine.KickSweep())
	})
	e.wheel.Every(ctx, cfg.DeniedReqThreshold, func() {
		added := e.decisionEngine.ProcessDeniedRequests(e.cfg.Load().DeniedReqThreshold)
		if len(added) > 0 {
			e.peers.BroadcastAddMAC(ctx, added)
		}
	})
	e.wheel.Every(ctx, cfg.UpdateClientPeriod, func() {
		e.sessions.PollClients(ctx, e.cfg.Load().ChanUtilAvgPeriod)
	})
	if cfg.UpdateBeaconReportsPeriod > 0 {
		e.wheel.Every(ctx, cfg.UpdateBeaconReportsPeriod, func() { e.sessions.RequestBeaconReports(ctx) })
	}

	if e.discovery != nil && e.tcpTransport != nil {
		e.wheel.Every(ctx, cfg.PeerDiscoveryPeriod, func() { e.refreshPeers(ctx) })
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("control surface listening on %s", cfg.Addr)
		if err := e.control.Run(ctx); err != nil {
			errChan <- fmt.Errorf("control server error: %w", err)
		}
	}()

	slog.Info("dawnd ready")

	select {
	case <-ctx.Done():
		slog.Info("termination signal received")
	case err := <-errChan:
		return err
	}

	return e.shutdown()
}

func (e *Engine) refreshPeers(ctx context.Context) {
	peers, err := e.discovery.Discover(ctx)
	if err != nil {
		e.logger.Warn("peer discovery failed", "error", err)
		return
	}
	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, fmt.Sprintf("%s:%d", p.Addr, p.Port))
	}
	e.tcpTransport.UpdatePeers(addrs)
}

// shutdown cancels every timer, stops sessions, and tears down the
// mDNS advertisement. The MAC allow-list needs no explicit flush:
// every mutation already persists synchronously (I5).
func (e *Engine) shutdown() error {
	e.wheel.Stop()
	e.sessions.Stop()
	if e.advertiseStop != nil {
		e.advertiseStop()
	}
	return nil
}
