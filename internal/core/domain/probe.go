package domain

import "time"

// ProbeEntry is an observation of client C hearing AP B at some time.
// Identity is (BSSID, Client).
type ProbeEntry struct {
	BSSID  MAC
	Client MAC
	Target MAC // intended AP, may equal BSSID

	Signal int32 // dBm
	Freq   int32 // kHz
	HT     bool
	VHT    bool
	RCPI   int16
	RSNI   int16

	Counter int // number of times reseen; probe requests bump it
	Time    time.Time
}

// Identity returns the (bssid, client) key this entry is stored under.
func (p ProbeEntry) Identity() ProbeKey { return ProbeKey{BSSID: p.BSSID, Client: p.Client} }

// ProbeKey is the compound identity of a ProbeEntry.
type ProbeKey struct {
	BSSID  MAC
	Client MAC
}
