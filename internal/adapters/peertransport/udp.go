// Package peertransport implements the three peer-replication
// transport modes named in §4.6: plaintext UDP, symmetric-encrypted
// UDP, and TCP with umdns-style discovery.
package peertransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

const maxDatagramSize = 65507

// bindUDP resolves listenAddr and peers and binds a socket shared by
// both the plaintext and encrypted UDP transports.
func bindUDP(listenAddr string, peers []string, logger *slog.Logger) (*net.UDPConn, []*net.UDPAddr, error) {
	laddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen udp %s: %w", listenAddr, err)
	}

	var resolved []*net.UDPAddr
	for _, p := range peers {
		addr, err := net.ResolveUDPAddr("udp", p)
		if err != nil {
			logger.Warn("skipping unresolvable udp peer", "peer", p, "error", err)
			continue
		}
		resolved = append(resolved, addr)
	}
	return conn, resolved, nil
}

// UDP is the plaintext multicast/unicast UDP transport.
type UDP struct {
	conn     *net.UDPConn
	peers    []*net.UDPAddr
	incoming chan domain.Event
	logger   *slog.Logger
}

// NewUDP binds listenAddr and sends to every address in peers.
func NewUDP(listenAddr string, peers []string, logger *slog.Logger) (*UDP, error) {
	conn, resolved, err := bindUDP(listenAddr, peers, logger)
	if err != nil {
		return nil, err
	}
	u := &UDP{conn: conn, peers: resolved, incoming: make(chan domain.Event, 64), logger: logger}
	go u.readLoop()
	return u, nil
}

func (u *UDP) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			close(u.incoming)
			return
		}
		var ev domain.Event
		if err := json.Unmarshal(buf[:n], &ev); err != nil {
			u.logger.Warn("dropping malformed udp datagram", "error", err)
			continue
		}
		u.incoming <- ev
	}
}

func (u *UDP) Broadcast(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var firstErr error
	for _, addr := range u.peers {
		if _, err := u.conn.WriteToUDP(data, addr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
	}
	return firstErr
}

func (u *UDP) Incoming() <-chan domain.Event { return u.incoming }

func (u *UDP) Close() error { return u.conn.Close() }
