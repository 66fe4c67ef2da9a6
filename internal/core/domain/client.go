package domain

import "time"

// ClientEntry is a station currently associated to a local AP. It is
// produced from the radio manager's periodic client list and removed
// by aging. Identity is Client.
type ClientEntry struct {
	BSSID     MAC
	Client    MAC
	HT        bool
	VHT       bool
	KickCount int
	Signature string // opaque, <= 1024 bytes
	Time      time.Time
}
