// Package display implements Display: a capability interface for
// rendering live telemetry and lifecycle events, with headless, text,
// and websocket drivers. obdsentryd only ever produces render commands
// and never blocks on a slow or absent consumer.
package display

import (
	"time"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// Display is implemented by every driver. Methods must not block on a
// slow or disconnected consumer.
type Display interface {
	Update(r store.Reading)
	ShowDriveBoundary(kind store.ConnectionEventKind, ts time.Time)
	ShowSummary(results []store.AnalysisResult)
	ShowAlert(e store.AlertEvent)
	ShowBattery(socPct int, source store.PowerSource)
	Close() error
}

// Command is the JSON frame shape the websocket driver emits. Other
// drivers format Commands into their own medium (log lines, a text
// banner) rather than serializing them, but sharing the shape keeps all
// three drivers' render semantics aligned.
type Command struct {
	Kind    string    `json:"kind"`
	Ts      time.Time `json:"ts"`
	Reading *store.Reading          `json:"reading,omitempty"`
	Drive   *DriveBoundaryPayload   `json:"drive,omitempty"`
	Summary []store.AnalysisResult  `json:"summary,omitempty"`
	Alert   *store.AlertEvent       `json:"alert,omitempty"`
	Battery *BatteryPayload         `json:"battery,omitempty"`
}

// DriveBoundaryPayload carries a drive_start/drive_end Command's detail.
type DriveBoundaryPayload struct {
	Kind store.ConnectionEventKind `json:"kind"`
}

// BatteryPayload carries a ShowBattery Command's detail.
type BatteryPayload struct {
	SocPct int               `json:"soc_pct"`
	Source store.PowerSource `json:"source"`
}
