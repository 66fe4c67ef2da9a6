// Package radiomanager implements the JSON-over-Unix-socket
// RadioManager adapter (§4.5): a concrete, testable stand-in for the
// real radio manager's RPC wire protocol, which the specification
// puts out of scope.
package radiomanager

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// frame is the line-delimited JSON envelope exchanged with a radio
// manager socket, in both request and notification directions.
type frame struct {
	Method string          `json:"method"`
	Iface  string          `json:"iface,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Socket is a RadioManager adapter talking to one Unix-domain socket
// per local radio iface, found by scanning socketDir.
type Socket struct {
	socketDir string
	logger    *slog.Logger

	mu    sync.Mutex
	conns map[string]net.Conn // iface -> control connection
}

// New returns a Socket adapter scanning socketDir for iface sockets.
func New(socketDir string, logger *slog.Logger) *Socket {
	return &Socket{socketDir: socketDir, logger: logger, conns: make(map[string]net.Conn)}
}

// Discover implements ports.RadioManager: it lists every non-directory
// entry of socketDir, excluding the "global" control socket (§6). The
// entry's file type is not checked, so regular files are listed too.
func (s *Socket) Discover(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.socketDir)
	if err != nil {
		return nil, fmt.Errorf("read socket dir %s: %w", s.socketDir, err)
	}
	var ifaces []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == "global" {
			continue
		}
		ifaces = append(ifaces, e.Name())
	}
	return ifaces, nil
}

// Notifications dials iface's socket and returns a channel fed by
// every subsequently received line-delimited frame, decoded into a
// Notification.
func (s *Socket) Notifications(iface string) (<-chan domain.Notification, error) {
	path := filepath.Join(s.socketDir, iface)
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}

	s.mu.Lock()
	s.conns[iface] = conn
	s.mu.Unlock()

	out := make(chan domain.Notification, 32)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 4096), 1<<20)
		for scanner.Scan() {
			var f frame
			if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
				s.logger.Warn("dropping malformed radio manager frame", "iface", iface, "error", err)
				continue
			}
			n, err := decodeNotification(f)
			if err != nil {
				s.logger.Warn("dropping unrecognised radio manager notification", "iface", iface, "method", f.Method, "error", err)
				continue
			}
			out <- n
		}
	}()
	return out, nil
}

func decodeNotification(f frame) (domain.Notification, error) {
	var n domain.Notification
	switch f.Method {
	case "probe", "auth", "assoc", "deauth", "beacon-report":
		n.Method = domain.NotificationMethod(f.Method)
	default:
		return n, fmt.Errorf("%w: unknown notification method %q", domain.ErrInvalidArgument, f.Method)
	}
	if err := json.Unmarshal(f.Params, &n); err != nil {
		return n, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	n.Method = domain.NotificationMethod(f.Method)
	return n, nil
}

func (s *Socket) conn(iface string) (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[iface]
	if !ok {
		return nil, fmt.Errorf("%w: no open connection for iface %s", domain.ErrNotFound, iface)
	}
	return conn, nil
}

func (s *Socket) call(ctx context.Context, iface, method string, params any) error {
	conn, err := s.conn(iface)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}
	req, err := json.Marshal(frame{Method: method, Iface: iface, Params: payload})
	if err != nil {
		return err
	}
	req = append(req, '\n')

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
	}
	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrTransient, method, err)
	}
	return nil
}
