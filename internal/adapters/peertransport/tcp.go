package peertransport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// TCP is a length-delimited-by-newline TCP transport: each peer
// connection is a persistent outbound dial plus the single inbound
// listener, both carrying newline-framed JSON envelopes (§4.6).
type TCP struct {
	listener *net.TCPListener
	incoming chan domain.Event
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[string]net.Conn // addr -> live outbound connection
	peers []string
}

// NewTCP binds listenAddr for inbound peer connections. Outbound
// connections are dialed lazily by Broadcast and kept open for reuse.
func NewTCP(listenAddr string, logger *slog.Logger) (*TCP, error) {
	laddr, err := net.ResolveTCPAddr("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen addr: %w", err)
	}
	ln, err := net.ListenTCP("tcp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", listenAddr, err)
	}
	t := &TCP{
		listener: ln,
		incoming: make(chan domain.Event, 64),
		logger:   logger,
		conns:    make(map[string]net.Conn),
	}
	go t.acceptLoop()
	return t, nil
}

func (t *TCP) acceptLoop() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			close(t.incoming)
			return
		}
		go t.readConn(conn)
	}
}

func (t *TCP) readConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		var ev domain.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.logger.Warn("dropping malformed tcp frame", "error", err)
			continue
		}
		t.incoming <- ev
	}
}

// UpdatePeers replaces the set of addresses Broadcast dials; the
// discovery loop calls this whenever the advertised peer set changes.
func (t *TCP) UpdatePeers(addrs []string) {
	t.mu.Lock()
	t.peers = addrs
	t.mu.Unlock()
}

// Broadcast dials (or reuses) a connection to every currently known
// peer (as set by UpdatePeers) and writes ev as a single
// newline-terminated JSON frame.
func (t *TCP) Broadcast(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	t.mu.Lock()
	peerAddrs := append([]string(nil), t.peers...)
	t.mu.Unlock()

	var firstErr error
	for _, addr := range peerAddrs {
		conn, err := t.dial(addr)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: dial %s: %v", domain.ErrTransient, addr, err)
			}
			continue
		}
		if _, err := conn.Write(data); err != nil {
			t.mu.Lock()
			delete(t.conns, addr)
			t.mu.Unlock()
			conn.Close()
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: write %s: %v", domain.ErrTransient, addr, err)
			}
		}
	}
	return firstErr
}

func (t *TCP) dial(addr string) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[addr]; ok {
		return conn, nil
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	t.conns[addr] = conn
	return conn, nil
}

func (t *TCP) Incoming() <-chan domain.Event { return t.incoming }

func (t *TCP) Close() error {
	t.mu.Lock()
	for _, conn := range t.conns {
		conn.Close()
	}
	t.mu.Unlock()
	return t.listener.Close()
}
