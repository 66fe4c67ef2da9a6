package domain

// SessionState is the subscription lifecycle of a HostapdSession, per
// the radio-manager session state machine: a session is unsubscribed
// until a matching radio object appears, at which point it waits for
// the object, then becomes subscribed; removal of the object resets
// it back to unsubscribed so it can re-arm.
type SessionState int

const (
	SessionUnsubscribed SessionState = iota
	SessionWaitingForObject
	SessionSubscribed
)

func (s SessionState) String() string {
	switch s {
	case SessionUnsubscribed:
		return "unsubscribed"
	case SessionWaitingForObject:
		return "waiting_for_object"
	case SessionSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// ChanUtilAccumulator tracks the running sum of busy/total time-delta
// samples a session collects between channel-utilisation averaging
// periods.
type ChanUtilAccumulator struct {
	SumRatio     float64
	Samples      int
	LastBusyTime uint64
	LastTotalTime uint64
}

// HostapdSession is the per-local-radio runtime record: one exists
// per local AP interface this instance manages, independent of the
// APEntry the same radio publishes into the AP store.
type HostapdSession struct {
	PeerID   string // this instance's replication peer id
	Iface    string
	Hostname string
	BSSID    MAC
	SSID     string

	HTSupport  bool
	VHTSupport bool

	ChanUtil       ChanUtilAccumulator
	ChanUtilAvg    int // 0-255, most recently published average
	NeighborReport string

	State SessionState
}
