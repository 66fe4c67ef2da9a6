package domain

// Weights is the exhaustive set of signed scoring weights and
// decision thresholds the metric evaluator and decision engine
// consume. Every field here is a tunable exposed through config. The
// "uci" event that reload_config broadcasts carries no weight values,
// and applying one on a peer only logs it, so peers do not take over
// each other's weights.
type Weights struct {
	// Metric evaluator (score)
	HTSupport      int
	VHTSupport     int
	NoHTSupport    int
	NoVHTSupport   int
	RSSI           int
	LowRSSI        int
	Freq           int
	ChanUtil       int
	MaxChanUtil    int

	RSSIVal        int32 // signal threshold for +w_rssi
	LowRSSIVal     int32 // signal threshold for -w_low_rssi
	ChanUtilVal    int   // channel_utilization threshold for -w_chan_util
	MaxChanUtilVal int   // channel_utilization threshold for -w_max_chan_util

	BandwidthThreshold int
	UseStationCount    bool
	MaxStationDiff     int

	// Decision engine
	MinProbeCount int
	EvalProbeReq  bool
	EvalAuthReq   bool
	EvalAssocReq  bool
	MinKickCount  int
	Kicking       bool
	BanTime       int // seconds

	DenyAuthReason  int
	DenyAssocReason int

	// UseDriverRecog gates DeniedReq insertion in handle_auth/handle_assoc
	// on a driver recognizing the deauth/disassoc reason dawnd returns;
	// when off, denied attempts are never recorded towards MAC-list
	// promotion.
	UseDriverRecog bool

	// Beacon-report request parameters (rrm_beacon_req), sent as-is to
	// every associated client on the beacon-report polling timer.
	BeaconOpClass  int16
	BeaconChannel  int64
	BeaconDuration int16
	BeaconMode     int
}

// DefaultWeights mirrors the reference implementation's shipped
// defaults, used when no configuration overrides them.
func DefaultWeights() Weights {
	return Weights{
		HTSupport:      5,
		VHTSupport:     5,
		NoHTSupport:    0,
		NoVHTSupport:   0,
		RSSI:           15,
		LowRSSI:        15,
		Freq:           0,
		ChanUtil:       0,
		MaxChanUtil:    0,
		RSSIVal:        -80,
		LowRSSIVal:     -95,
		ChanUtilVal:    170,
		MaxChanUtilVal: 205,

		BandwidthThreshold: 6,
		UseStationCount:    true,
		MaxStationDiff:     1,

		MinProbeCount: 1,
		EvalProbeReq:  true,
		EvalAuthReq:   true,
		EvalAssocReq:  true,
		MinKickCount:  5,
		Kicking:       false,
		BanTime:       30,

		DenyAuthReason:  1,
		DenyAssocReason: 17,

		UseDriverRecog: true,

		BeaconOpClass:  0,
		BeaconChannel:  0,
		BeaconDuration: 50,
		BeaconMode:     0, // passive
	}
}
