// Package metrics wires obdsentryd's Prometheus instrumentation: a
// private registry (not the global default, so tests can create
// independent instances) exposed at hardware.metrics_addr, grounded on
// 99souls-ariadne's telemetry/metrics/prometheus.go registry-ownership
// pattern.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge obdsentryd exports.
type Metrics struct {
	registry *prom.Registry

	ReadingsTotal      *prom.CounterVec
	PollerErrorsTotal  *prom.CounterVec
	ConnectionState    prom.Gauge
	DriveSessionsTotal prom.Counter
	AlertEventsTotal   *prom.CounterVec
	UpsSocPct          prom.Gauge
	BackupSuccessTotal prom.Counter
	BackupFailureTotal prom.Counter
}

// New creates a Metrics instance with its own registry and registers
// every collector.
func New() *Metrics {
	reg := prom.NewRegistry()

	m := &Metrics{
		registry: reg,
		ReadingsTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "obdsentry_readings_total",
			Help: "Total readings emitted by Poller, by parameter.",
		}, []string{"parameter"}),
		PollerErrorsTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "obdsentry_poller_errors_total",
			Help: "Total Poller query errors, by parameter and error kind.",
		}, []string{"parameter", "kind"}),
		ConnectionState: prom.NewGauge(prom.GaugeOpts{
			Name: "obdsentry_connection_state",
			Help: "Current ObdLink connection state (0=disconnected,1=connecting,2=connected,3=degraded,4=reconnecting).",
		}),
		DriveSessionsTotal: prom.NewCounter(prom.CounterOpts{
			Name: "obdsentry_drive_sessions_total",
			Help: "Total drive sessions started.",
		}),
		AlertEventsTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "obdsentry_alert_events_total",
			Help: "Total alert events fired, by threshold id.",
		}, []string{"threshold_id"}),
		UpsSocPct: prom.NewGauge(prom.GaugeOpts{
			Name: "obdsentry_ups_soc_pct",
			Help: "Most recent UPS state-of-charge percentage.",
		}),
		BackupSuccessTotal: prom.NewCounter(prom.CounterOpts{
			Name: "obdsentry_backup_success_total",
			Help: "Total successful backups.",
		}),
		BackupFailureTotal: prom.NewCounter(prom.CounterOpts{
			Name: "obdsentry_backup_failure_total",
			Help: "Total failed backups.",
		}),
	}

	reg.MustRegister(
		m.ReadingsTotal,
		m.PollerErrorsTotal,
		m.ConnectionState,
		m.DriveSessionsTotal,
		m.AlertEventsTotal,
		m.UpsSocPct,
		m.BackupSuccessTotal,
		m.BackupFailureTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this instance's
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
