package domain

// NotificationMethod identifies the kind of radio-manager notification
// carried in a Notification's Method field (§6 of the specification).
type NotificationMethod string

const (
	MethodProbe         NotificationMethod = "probe"
	MethodAuth          NotificationMethod = "auth"
	MethodAssoc         NotificationMethod = "assoc"
	MethodDeauth        NotificationMethod = "deauth"
	MethodBeaconReport  NotificationMethod = "beacon-report"
)

// Notification is a radio-manager message, already augmented by the
// session with the local BSSID/SSID before dispatch to a handler.
type Notification struct {
	Method NotificationMethod

	Address MAC // station sending the request
	BSSID   MAC // local AP (augmented by the session)
	SSID    string

	// probe/auth/assoc fields
	Target MAC
	Signal int32
	Freq   int32

	// probe-only fields
	HTCapabilities  bool
	VHTCapabilities bool
	RCPI            int16
	RSNI            int16

	// deauth fields
	Reason uint32

	// beacon-report fields
	OpClass    int16
	Channel    int64
	StartTime  int32
	Duration   int16
	ReportInfo int16
	AntennaID  int16
	ParentTSF  int16
}
