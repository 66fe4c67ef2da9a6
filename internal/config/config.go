// Package config loads runtime configuration the way the teacher's
// Config loader does: env vars read first as defaults (DAWN_* prefix),
// then flags let the command line override them.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// PeerTransportMode selects which of the three peer-replication
// transports (§4.6) this instance uses.
type PeerTransportMode string

const (
	PeerTransportUDP          PeerTransportMode = "udp"
	PeerTransportEncryptedUDP PeerTransportMode = "encrypted-udp"
	PeerTransportTCP          PeerTransportMode = "tcp"
)

// Config holds all application configuration, including every scoring
// weight and threshold named in §4.2-§4.6, matching the teacher's flat
// Config struct shape.
type Config struct {
	Addr             string
	HostapdSocketDir string
	MACListPath      string

	PeerID              string
	PeerTransportMode   PeerTransportMode
	PeerListenAddr      string
	PeerAddrs           []string
	PeerEncryptionKey   [32]byte
	PeerDiscoveryPeriod time.Duration

	ProbeTTL  time.Duration
	ClientTTL time.Duration
	APTTL     time.Duration
	DeniedTTL time.Duration

	DeniedReqThreshold        time.Duration
	ChanUtilAvgPeriod         int
	UpdateClientPeriod        time.Duration
	DiscoverPeriod            time.Duration
	KickSweepPeriod           time.Duration
	UpdateBeaconReportsPeriod time.Duration

	MockMode    bool
	MockIfaces  []string
	MockClients int
	Debug       bool

	Weights domain.Weights
}

// Load parses environment variables and then command-line flags
// (flags override env), matching the teacher's getEnv/flag ordering.
func Load() (*Config, error) {
	cfg := &Config{Weights: domain.DefaultWeights()}

	cfg.Addr = getEnv("DAWN_ADDR", ":1035")
	cfg.HostapdSocketDir = getEnv("DAWN_HOSTAPD_DIR", "/var/run/hostapd")
	cfg.MACListPath = getEnv("DAWN_MAC_LIST", "/tmp/dawn_mac_list")

	// DAWN_PEER_ID pins the identity a peer advertises itself under in
	// replicated events; left unset, each process mints a random one so
	// peers never collide without coordination.
	cfg.PeerID = getEnv("DAWN_PEER_ID", uuid.NewString())

	peerMode := getEnv("DAWN_PEER_TRANSPORT", string(PeerTransportUDP))
	cfg.PeerListenAddr = getEnv("DAWN_PEER_LISTEN", ":1042")
	peerAddrsCSV := getEnv("DAWN_PEER_ADDRS", "")
	peerKeyHex := getEnv("DAWN_PEER_KEY", "")
	cfg.PeerDiscoveryPeriod = getEnvDuration("DAWN_PEER_DISCOVERY_PERIOD", 10*time.Second)

	cfg.ProbeTTL = getEnvDuration("DAWN_PROBE_TTL", 60*time.Second)
	cfg.ClientTTL = getEnvDuration("DAWN_CLIENT_TTL", 60*time.Second)
	cfg.APTTL = getEnvDuration("DAWN_AP_TTL", 60*time.Second)
	cfg.DeniedTTL = getEnvDuration("DAWN_DENIED_TTL", 60*time.Second)

	cfg.DeniedReqThreshold = getEnvDuration("DAWN_DENIED_REQ_THRESHOLD", 30*time.Second)
	cfg.ChanUtilAvgPeriod = int(getEnvFloat("DAWN_CHAN_UTIL_AVG_PERIOD", 5))
	cfg.UpdateClientPeriod = getEnvDuration("DAWN_UPDATE_CLIENT_PERIOD", 10*time.Second)
	cfg.DiscoverPeriod = getEnvDuration("DAWN_DISCOVER_PERIOD", 5*time.Second)
	cfg.KickSweepPeriod = getEnvDuration("DAWN_KICK_SWEEP_PERIOD", 10*time.Second)
	// 0 disables the beacon-report request timer entirely, mirroring
	// update_beacon_reports's "allow setting timeout to 0" behavior.
	cfg.UpdateBeaconReportsPeriod = getEnvDuration("DAWN_UPDATE_BEACON_REPORTS_PERIOD", 0)

	cfg.MockMode = getEnvBool("DAWN_MOCK", false)
	mockIfacesCSV := getEnv("DAWN_MOCK_IFACES", "wlan0,wlan1")
	mockClients := int(getEnvFloat("DAWN_MOCK_CLIENTS", 8))

	w := &cfg.Weights
	w.HTSupport = int(getEnvFloat("DAWN_W_HT_SUPPORT", float64(w.HTSupport)))
	w.VHTSupport = int(getEnvFloat("DAWN_W_VHT_SUPPORT", float64(w.VHTSupport)))
	w.NoHTSupport = int(getEnvFloat("DAWN_W_NO_HT_SUPPORT", float64(w.NoHTSupport)))
	w.NoVHTSupport = int(getEnvFloat("DAWN_W_NO_VHT_SUPPORT", float64(w.NoVHTSupport)))
	w.RSSI = int(getEnvFloat("DAWN_W_RSSI", float64(w.RSSI)))
	w.LowRSSI = int(getEnvFloat("DAWN_W_LOW_RSSI", float64(w.LowRSSI)))
	w.Freq = int(getEnvFloat("DAWN_W_FREQ", float64(w.Freq)))
	w.ChanUtil = int(getEnvFloat("DAWN_W_CHAN_UTIL", float64(w.ChanUtil)))
	w.MaxChanUtil = int(getEnvFloat("DAWN_W_MAX_CHAN_UTIL", float64(w.MaxChanUtil)))
	w.RSSIVal = int32(getEnvFloat("DAWN_RSSI_VAL", float64(w.RSSIVal)))
	w.LowRSSIVal = int32(getEnvFloat("DAWN_LOW_RSSI_VAL", float64(w.LowRSSIVal)))
	w.ChanUtilVal = int(getEnvFloat("DAWN_CHAN_UTIL_VAL", float64(w.ChanUtilVal)))
	w.MaxChanUtilVal = int(getEnvFloat("DAWN_MAX_CHAN_UTIL_VAL", float64(w.MaxChanUtilVal)))
	w.BandwidthThreshold = int(getEnvFloat("DAWN_BANDWIDTH_THRESHOLD", float64(w.BandwidthThreshold)))
	w.UseStationCount = getEnvBool("DAWN_USE_STATION_COUNT", w.UseStationCount)
	w.MaxStationDiff = int(getEnvFloat("DAWN_MAX_STATION_DIFF", float64(w.MaxStationDiff)))
	w.MinProbeCount = int(getEnvFloat("DAWN_MIN_PROBE_COUNT", float64(w.MinProbeCount)))
	w.EvalProbeReq = getEnvBool("DAWN_EVAL_PROBE_REQ", w.EvalProbeReq)
	w.EvalAuthReq = getEnvBool("DAWN_EVAL_AUTH_REQ", w.EvalAuthReq)
	w.EvalAssocReq = getEnvBool("DAWN_EVAL_ASSOC_REQ", w.EvalAssocReq)
	w.MinKickCount = int(getEnvFloat("DAWN_MIN_KICK_COUNT", float64(w.MinKickCount)))
	w.Kicking = getEnvBool("DAWN_KICKING", w.Kicking)
	w.BanTime = int(getEnvFloat("DAWN_BAN_TIME", float64(w.BanTime)))
	w.DenyAuthReason = int(getEnvFloat("DAWN_DENY_AUTH_REASON", float64(w.DenyAuthReason)))
	w.DenyAssocReason = int(getEnvFloat("DAWN_DENY_ASSOC_REASON", float64(w.DenyAssocReason)))
	w.UseDriverRecog = getEnvBool("DAWN_USE_DRIVER_RECOG", w.UseDriverRecog)
	w.BeaconOpClass = int16(getEnvFloat("DAWN_BEACON_OP_CLASS", float64(w.BeaconOpClass)))
	w.BeaconChannel = int64(getEnvFloat("DAWN_BEACON_CHANNEL", float64(w.BeaconChannel)))
	w.BeaconDuration = int16(getEnvFloat("DAWN_BEACON_DURATION", float64(w.BeaconDuration)))
	w.BeaconMode = int(getEnvFloat("DAWN_BEACON_MODE", float64(w.BeaconMode)))

	// A fresh FlagSet per call, rather than the package-level
	// flag.CommandLine, so reload_config can call Load again without
	// panicking on "flag redefined".
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "control surface HTTP listen address")
	fs.StringVar(&cfg.HostapdSocketDir, "hostapd-dir", cfg.HostapdSocketDir, "directory scanned for hostapd control sockets")
	fs.StringVar(&cfg.MACListPath, "mac-list", cfg.MACListPath, "path to the persisted MAC allow-list")
	fs.StringVar(&cfg.PeerID, "peer-id", cfg.PeerID, "identity this instance advertises in replicated events")
	fs.StringVar(&peerMode, "peer-transport", peerMode, "peer transport: udp, encrypted-udp, or tcp")
	fs.StringVar(&cfg.PeerListenAddr, "peer-listen", cfg.PeerListenAddr, "peer transport listen address")
	fs.StringVar(&peerAddrsCSV, "peer-addrs", peerAddrsCSV, "comma-separated static peer addresses")
	fs.StringVar(&peerKeyHex, "peer-key", peerKeyHex, "hex-encoded 32-byte symmetric peer encryption key")
	fs.DurationVar(&cfg.PeerDiscoveryPeriod, "peer-discovery-period", cfg.PeerDiscoveryPeriod, "mDNS peer discovery interval")
	fs.DurationVar(&cfg.ProbeTTL, "probe-ttl", cfg.ProbeTTL, "probe store entry TTL")
	fs.DurationVar(&cfg.ClientTTL, "client-ttl", cfg.ClientTTL, "client store entry TTL")
	fs.DurationVar(&cfg.APTTL, "ap-ttl", cfg.APTTL, "ap store entry TTL")
	fs.DurationVar(&cfg.DeniedTTL, "denied-ttl", cfg.DeniedTTL, "denied request store entry TTL")
	fs.DurationVar(&cfg.DeniedReqThreshold, "denied-req-threshold", cfg.DeniedReqThreshold, "age at which a denied request is promoted to the MAC allow-list")
	fs.DurationVar(&cfg.UpdateClientPeriod, "update-client-period", cfg.UpdateClientPeriod, "client list refresh interval")
	fs.DurationVar(&cfg.DiscoverPeriod, "discover-period", cfg.DiscoverPeriod, "radio iface discovery interval")
	fs.DurationVar(&cfg.KickSweepPeriod, "kick-sweep-period", cfg.KickSweepPeriod, "kick sweep interval")
	fs.DurationVar(&cfg.UpdateBeaconReportsPeriod, "update-beacon-reports-period", cfg.UpdateBeaconReportsPeriod, "beacon-report request interval (0 disables)")
	fs.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "run against the in-process mock radio manager")
	fs.StringVar(&mockIfacesCSV, "mock-ifaces", mockIfacesCSV, "comma-separated synthetic ifaces for mock mode")
	fs.IntVar(&mockClients, "mock-clients", mockClients, "number of synthetic clients in mock mode")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable verbose debug logging")

	// Under `go test` os.Args carries the test binary's own flags, which
	// this FlagSet doesn't know about; skip flag parsing there so Load
	// stays callable from unit tests with only env vars in play.
	if len(os.Args) > 1 && !testing.Testing() {
		if err := fs.Parse(os.Args[1:]); err != nil {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
	}

	cfg.PeerTransportMode = PeerTransportMode(peerMode)
	cfg.PeerAddrs = splitCSV(peerAddrsCSV)
	cfg.MockIfaces = splitCSV(mockIfacesCSV)
	cfg.MockClients = mockClients

	if peerKeyHex != "" {
		key, err := hex.DecodeString(peerKeyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("peer encryption key must be 32 bytes hex-encoded")
		}
		copy(cfg.PeerEncryptionKey[:], key)
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
