package domain

// HearingAP is one bssid row of a get_hearing_map response (§6).
type HearingAP struct {
	Signal             int32 `json:"signal"`
	RCPI               int16 `json:"rcpi"`
	RSNI               int16 `json:"rsni"`
	Freq               int32 `json:"freq"`
	HT                 bool  `json:"ht"`
	VHT                bool  `json:"vht"`
	ChannelUtilization int   `json:"channel_utilization"`
	NumSTA             int   `json:"num_sta"`
	HTSupport          bool  `json:"ht_support"`
	VHTSupport         bool  `json:"vht_support"`
	Score              int   `json:"score"`
}

// NetworkAP is one bssid row of a get_network response (§6).
type NetworkAP struct {
	Freq               int32                    `json:"freq"`
	HTSupport          bool                     `json:"ht_support"`
	VHTSupport         bool                     `json:"vht_support"`
	ChannelUtilization int                      `json:"channel_utilization"`
	StationCount       int                      `json:"num_sta"`
	Local              bool                     `json:"local"`
	Clients            map[string]NetworkClient `json:"clients"`
}

// NetworkClient is one client row nested under a NetworkAP.
type NetworkClient struct {
	Signature string `json:"signature,omitempty"`
	HT        bool   `json:"ht"`
	VHT       bool   `json:"vht"`
	KickCount int    `json:"collision_count"`
	Signal    int32  `json:"signal"`
}
