package domain

import "time"

// DeniedReq is a probe/auth/assoc request that was refused. Identity
// is (BSSID, Client).
type DeniedReq struct {
	BSSID   MAC
	Client  MAC
	Target  MAC
	Signal  int32
	Freq    int32
	Counter int
	Time    time.Time
}

// Identity returns the (bssid, client) key this entry is stored under.
func (d DeniedReq) Identity() ProbeKey { return ProbeKey{BSSID: d.BSSID, Client: d.Client} }
