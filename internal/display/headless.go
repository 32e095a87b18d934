package display

import (
	"log/slog"
	"time"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// Headless logs every render call at DEBUG and otherwise does nothing —
// the always-valid fallback when no physical or remote renderer exists.
type Headless struct {
	logger *slog.Logger
}

// NewHeadless creates a Headless driver.
func NewHeadless(logger *slog.Logger) *Headless {
	return &Headless{logger: logger}
}

func (h *Headless) Update(r store.Reading) {
	h.logger.Debug("display: reading", "parameter", r.Parameter, "value", r.Value, "unit", r.Unit)
}

func (h *Headless) ShowDriveBoundary(kind store.ConnectionEventKind, ts time.Time) {
	h.logger.Debug("display: drive boundary", "kind", kind, "ts", ts)
}

func (h *Headless) ShowSummary(results []store.AnalysisResult) {
	h.logger.Debug("display: drive summary", "parameters", len(results))
}

func (h *Headless) ShowAlert(e store.AlertEvent) {
	h.logger.Debug("display: alert", "threshold", e.ThresholdID, "value", e.Value)
}

func (h *Headless) ShowBattery(socPct int, source store.PowerSource) {
	h.logger.Debug("display: battery", "soc_pct", socPct, "source", source)
}

func (h *Headless) Close() error {
	return nil
}
