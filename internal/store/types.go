package store

// Reading is one (timestamp, parameter, value, unit, profile_id, drive_id)
// tuple, immutable once emitted by Poller.
type Reading struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Parameter   string  `json:"parameter"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	ProfileID   string  `json:"profile_id,omitempty"` // empty means no active profile
	DriveID     string  `json:"drive_id,omitempty"`   // empty means no open drive session
}

// Profile is a named tuning profile.
type Profile struct {
	ID             string
	Name           string
	PollIntervalMs int
}

// Threshold is one AlertEngine rule.
type Threshold struct {
	ID         string
	ProfileID  string
	Parameter  string
	Direction  string // "above" or "below"
	Value      float64
	CooldownMs int
}

// DriveSession is one drive from drive_start to drive_end.
type DriveSession struct {
	ID        string
	ProfileID string
	StartTs   int64
	EndTs     *int64 // nil while open
}

// AlertEvent is one fired alert.
type AlertEvent struct {
	ThresholdID string  `json:"threshold_id"`
	ReadingTs   int64   `json:"reading_ts"`
	Value       float64 `json:"value"`
	ProfileID   string  `json:"profile_id,omitempty"`
}

// AnalysisResult is one (drive, parameter) row of StatsEngine output.
type AnalysisResult struct {
	DriveID   string  `json:"drive_id"`
	Parameter string  `json:"parameter"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
	Mode      float64 `json:"mode"`
	Std1      float64 `json:"std1"`
	Std2      float64 `json:"std2"`
	OutlierLo float64 `json:"outlier_lo"`
	OutlierHi float64 `json:"outlier_hi"`
}

// ConnectionEventKind enumerates the ConnectionEvent.kind values.
type ConnectionEventKind string

const (
	EventConnected    ConnectionEventKind = "connected"
	EventDisconnected ConnectionEventKind = "disconnected"
	EventDriveStart   ConnectionEventKind = "drive_start"
	EventDriveEnd     ConnectionEventKind = "drive_end"
)

// ConnectionEvent is one lifecycle/transition event logged for the health
// snapshot and operator audit trail.
type ConnectionEvent struct {
	Ts     int64
	Kind   ConnectionEventKind
	Detail string
}

// PowerSource enumerates UpsSample.source.
type PowerSource string

const (
	PowerMains   PowerSource = "mains"
	PowerBattery PowerSource = "battery"
)

// UpsSample is one battery telemetry snapshot.
type UpsSample struct {
	Ts             int64
	VoltageMv      int
	CurrentMaSigned int
	SocPct         int
	Source         PowerSource
}

// VehicleInfo is the VIN-decoded vehicle record.
type VehicleInfo struct {
	VIN     string
	Make    string
	Model   string
	Year    int
	RawJSON string
}

// BackupKind enumerates BackupRecord.kind.
type BackupKind string

const (
	BackupDatabase BackupKind = "database"
	BackupLogs     BackupKind = "logs"
)

// BackupStatus enumerates BackupRecord.status.
type BackupStatus string

const (
	BackupSuccess BackupStatus = "success"
	BackupFailed  BackupStatus = "failed"
)

// BackupRecord is one backup attempt's outcome.
type BackupRecord struct {
	ID         int64
	Ts         int64
	Kind       BackupKind
	Bytes      int64
	RemotePath string
	Status     BackupStatus
}
