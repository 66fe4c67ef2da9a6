package domain

import "time"

// NeighborReportMaxLen bounds the opaque 802.11k neighbor report string.
const NeighborReportMaxLen = 1024

// APEntry is an access point known on the logical network. Identity
// is BSSID; the store's total order is (SSID, BSSID) per invariant I4.
type APEntry struct {
	BSSID MAC
	SSID  string // <= 32 bytes

	Freq               int32
	HTSupport          bool
	VHTSupport         bool
	ChannelUtilization int // 0-255
	StationCount       int
	CollisionDomain    int
	Bandwidth          int
	APWeight           int
	NeighborReport     string

	Iface    string
	Hostname string
	Local    bool // true when this AP is one of this instance's own sessions
	Time     time.Time
}

// Less implements the (ssid, bssid) total order required by I4, so
// that adjacent-equal-SSID detection during overview construction is
// deterministic regardless of insertion order.
func (a APEntry) Less(b APEntry) bool {
	if a.SSID != b.SSID {
		return a.SSID < b.SSID
	}
	return a.BSSID < b.BSSID
}
