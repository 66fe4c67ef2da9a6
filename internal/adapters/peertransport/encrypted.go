package peertransport

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"golang.org/x/crypto/nacl/secretbox"
)

// EncryptedUDP is a symmetric-encrypted UDP transport: the
// specification calls peer-replication encryption "delegated" (§1
// Non-goals); secretbox is the delegated primitive, sealing the
// marshaled envelope bytes before they hit the wire (§6).
type EncryptedUDP struct {
	conn  *net.UDPConn
	peers []*net.UDPAddr
	key   [32]byte

	incoming chan domain.Event
	logger   *slog.Logger
}

// NewEncryptedUDP binds listenAddr and seals every datagram it sends
// with key (exactly 32 bytes, as configured by PeerEncryptionKey).
func NewEncryptedUDP(listenAddr string, peers []string, key [32]byte, logger *slog.Logger) (*EncryptedUDP, error) {
	conn, resolved, err := bindUDP(listenAddr, peers, logger)
	if err != nil {
		return nil, err
	}
	e := &EncryptedUDP{conn: conn, peers: resolved, key: key, incoming: make(chan domain.Event, 64), logger: logger}
	go e.readLoop()
	return e, nil
}

func (e *EncryptedUDP) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			close(e.incoming)
			return
		}
		sealed := make([]byte, n)
		copy(sealed, buf[:n])
		if len(sealed) < 24 {
			e.logger.Warn("dropping undersized encrypted udp datagram")
			continue
		}
		var nonce [24]byte
		copy(nonce[:], sealed[:24])
		plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &e.key)
		if !ok {
			e.logger.Warn("dropping encrypted udp datagram: authentication failed")
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal(plain, &ev); err != nil {
			e.logger.Warn("dropping malformed encrypted udp datagram", "error", err)
			continue
		}
		e.incoming <- ev
	}
}

func (e *EncryptedUDP) Broadcast(ctx context.Context, ev domain.Event) error {
	plain, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("%w: nonce: %v", domain.ErrTransient, err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &e.key)

	var firstErr error
	for _, addr := range e.peers {
		if _, err := e.conn.WriteToUDP(sealed, addr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
	}
	return firstErr
}

func (e *EncryptedUDP) Incoming() <-chan domain.Event { return e.incoming }

func (e *EncryptedUDP) Close() error { return e.conn.Close() }
