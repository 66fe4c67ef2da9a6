package peertransport

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/zeroconf/v2"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/ports"
)

const mdnsServiceTCP = "_dawn._tcp"

// MDNS discovers peers advertising the _dawn._tcp service, the
// umdns-equivalent collaborator named in §4.6.
type MDNS struct {
	resolver *zeroconf.Resolver
	timeout  time.Duration
}

// NewMDNS builds a resolver for the local network's _dawn._tcp peers.
func NewMDNS(timeout time.Duration) (*MDNS, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("new mdns resolver: %w", err)
	}
	return &MDNS{resolver: resolver, timeout: timeout}, nil
}

// Discover browses for _dawn._tcp entries for up to m.timeout and
// returns every peer found before the browse context expires.
func (m *MDNS) Discover(ctx context.Context) ([]ports.Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	var peers []ports.Peer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			addr := entry.AddrIPv4
			if len(addr) == 0 {
				continue
			}
			peers = append(peers, ports.Peer{
				Host: entry.HostName,
				Addr: addr[0].String(),
				Port: entry.Port,
			})
		}
	}()

	if err := m.resolver.Browse(ctx, mdnsServiceTCP, "local.", entries); err != nil {
		return nil, fmt.Errorf("%w: mdns browse: %v", domain.ErrTransient, err)
	}
	<-ctx.Done()
	<-done
	return peers, nil
}

// Advertise registers this node's own _dawn._tcp service so peers can
// discover it, returning a shutdown function.
func Advertise(instance, host string, port int) (func(), error) {
	server, err := zeroconf.Register(instance, mdnsServiceTCP, "local.", port, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	return server.Shutdown, nil
}
