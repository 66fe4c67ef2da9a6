package domain

// EventMethod identifies the kind of peer-replication event, matching
// the `method` tag of the wire envelope (§4.6, §6).
type EventMethod string

const (
	EventProbe        EventMethod = "probe"
	EventClients       EventMethod = "clients"
	EventUCI           EventMethod = "uci"
	EventDeauth        EventMethod = "deauth"
	EventAddMAC        EventMethod = "addmac"
	EventSetProbe      EventMethod = "setprobe"
	EventBeaconReport  EventMethod = "beacon-report"
	EventAP            EventMethod = "ap"
)

// Event is the peer-replication wire envelope: a method tag plus a
// JSON-encoded payload string. Encryption, when enabled, wraps the
// marshaled envelope bytes, not the payload alone.
type Event struct {
	Method EventMethod `json:"method"`
	Data   string      `json:"data"`
}

// UCIPayload mirrors the `uci` replication method: two sub-tables
// carrying the exhaustive set of configurable integers, so that a
// reload_config on one instance converges every peer on the same
// scoring/timing parameters.
type UCIPayload struct {
	Metric map[string]int `json:"metric"`
	Times  map[string]int `json:"times"`
}

// AddMACPayload mirrors the control surface's add_mac policy and the
// `addmac` replication method.
type AddMACPayload struct {
	Addrs []MAC `json:"addrs"`
}
