package domain

// Outbound RPC request/response shapes the core issues to the radio
// manager (§6). Every call carries a 1s deadline enforced by the
// caller via context.WithTimeout; these types carry only the payload.

// ClientInfo is one row of the get_clients response.
type ClientInfo struct {
	Client    MAC
	HT        bool
	VHT       bool
	Signature string
}

// ClientsReport is the full get_clients response: the radio's own AP
// fields (bssid, ssid, ht/vht support, channel utilization, neighbor
// report) alongside its current client list, mirroring the combined
// blob ubus_get_clients_cb builds before broadcasting it to peers and
// parsing it into the local stores.
type ClientsReport struct {
	BSSID              MAC
	SSID               string
	HTSupport          bool
	VHTSupport         bool
	ChannelUtilization int
	NeighborReport     string
	Clients            []ClientInfo
}

// NeighborReportEntry is one row of an rrm_nr_set request.
type NeighborReportEntry struct {
	BSSIDLowerHex string
	SSID          string
	NeighborReport string
}

// BeaconRequest is the rrm_beacon_req payload.
type BeaconRequest struct {
	Addr     MAC
	OpClass  int16
	Channel  int64
	Duration int16
	Mode     int
	SSID     string // always "" per the specified wildcard beacon request
}

// BSSMgmtEnable is the bss_mgmt_enable payload; all three flags are
// always set to 1 per the specification.
type BSSMgmtEnable struct {
	NeighborReport bool
	BeaconReport   bool
	BSSTransition  bool
}

// DelClient is the del_client payload.
type DelClient struct {
	Addr    MAC
	Reason  int
	Deauth  uint8
	BanTime int
}

// DisassocImminent is the wnm_disassoc_imminent (BTM) payload.
type DisassocImminent struct {
	Addr      MAC
	Duration  int
	Abridged  bool
	Neighbors []string // destination AP neighbor report strings
}
