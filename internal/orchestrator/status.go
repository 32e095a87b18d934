package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StatusSnapshot is the Orchestrator's public health contract, returned by
// Status() and served at GET /status for the `status` CLI command to poll
// a live daemon over HTTP.
type StatusSnapshot struct {
	ConnectionState  string           `json:"connection_state"`
	UptimeSec        float64          `json:"uptime_sec"`
	ReadingsTotal    int64            `json:"readings_total"`
	ReadingsPerMin   float64          `json:"readings_per_min"`
	ErrorCounts      map[string]int64 `json:"error_counts"`
	ActiveProfile    string           `json:"active_profile"`
	OpenDriveID      string           `json:"open_drive_id,omitempty"`
	LastHealthCheck  time.Time        `json:"last_health_check"`
}

// Status returns a point-in-time snapshot, safe to call concurrently with
// the running orchestrator event loop.
func (o *Orchestrator) Status() StatusSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	errs := make(map[string]int64, len(o.errorCounts))
	for k, v := range o.errorCounts {
		errs[k] = v
	}

	return StatusSnapshot{
		ConnectionState: o.conn.State().String(),
		UptimeSec:       time.Since(o.startedAt).Seconds(),
		ReadingsTotal:   o.readingCount,
		ReadingsPerMin:  o.lastReadingsPerMin,
		ErrorCounts:     errs,
		ActiveProfile:   o.active.Get(),
		OpenDriveID:     o.openDriveID,
		LastHealthCheck: o.lastHealthCheck,
	}
}

// statusHandler serves the current StatusSnapshot as JSON.
func (o *Orchestrator) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(o.Status()); err != nil {
			o.logger.Warn("orchestrator: encoding status response failed", "error", err)
		}
	}
}

// profileSwitchRequest is the POST /profile request body naming the
// profile id to queue.
type profileSwitchRequest struct {
	ID string `json:"id"`
}

// profileHandler is ProfileSwitcher's only entry point in a running
// daemon: it validates the named profile exists and queues it via
// Switcher.Queue, applied at the next drive_end per ApplyPending.
func (o *Orchestrator) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

			return
		}

		var req profileSwitchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		if _, ok := o.profiles.Get(req.ID); !ok {
			http.Error(w, fmt.Sprintf("unknown profile %q", req.ID), http.StatusNotFound)

			return
		}

		o.switcher.Queue(req.ID)
		o.logger.Info("orchestrator: profile switch queued", "profile", req.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"queued": req.ID}) //nolint:errcheck
	}
}
