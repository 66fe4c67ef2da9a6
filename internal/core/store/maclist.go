package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// MACAllowList is the set of client MACs that are always allowed
// regardless of scoring, persisted line-delimited to Path. It is the
// one store with a file-backed side effect: every mutation writes the
// full set back to disk before returning, so the on-disk copy is
// always a superset-or-equal of the in-memory set (I5). The file is
// written via a temp-file-then-rename so a reader never observes a
// partial write; this instance is the sole writer for its own Path
// (§5's "exclusive writer" rule).
type MACAllowList struct {
	mu   sync.Mutex
	path string
	set  map[domain.MAC]struct{}
}

// NewMACAllowList loads path if it exists (readers at startup only,
// per §5) and returns a store ready for runtime mutation.
func NewMACAllowList(path string) (*MACAllowList, error) {
	l := &MACAllowList{path: path, set: make(map[domain.MAC]struct{})}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open mac allow-list %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		mac, err := domain.ParseMAC(line)
		if err != nil {
			continue // malformed line, skip rather than fail startup
		}
		l.set[mac] = struct{}{}
	}
	return l, sc.Err()
}

// Contains reports whether mac is in the allow-list.
func (l *MACAllowList) Contains(mac domain.MAC) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.set[mac]
	return ok
}

// Add unions addrs into the set and persists before returning. Returns
// the subset that was newly added (not already present), for the
// caller to decide whether a peer broadcast is needed.
func (l *MACAllowList) Add(addrs []domain.MAC) ([]domain.MAC, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []domain.MAC
	for _, mac := range addrs {
		if _, ok := l.set[mac]; !ok {
			l.set[mac] = struct{}{}
			added = append(added, mac)
		}
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := l.persistLocked(); err != nil {
		return nil, err
	}
	return added, nil
}

// All returns a sorted snapshot of the current set.
func (l *MACAllowList) All() []domain.MAC {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.MAC, 0, len(l.set))
	for mac := range l.set {
		out = append(out, mac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (l *MACAllowList) persistLocked() error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".dawn_mac_list-*")
	if err != nil {
		return fmt.Errorf("create temp mac list: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	macs := make([]string, 0, len(l.set))
	for mac := range l.set {
		macs = append(macs, string(mac))
	}
	sort.Strings(macs)
	for _, mac := range macs {
		if _, err := fmt.Fprintln(w, mac); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
