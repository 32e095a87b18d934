// Package alert implements AlertEngine: per-threshold evaluation of
// incoming readings against the active profile's thresholds, with a
// per-threshold cooldown so a sustained breach fires once per cooldown
// window rather than on every reading.
package alert

import (
	"sync"
	"time"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// Engine evaluates readings against a set of thresholds. Safe for
// concurrent use — the orchestrator may reload thresholds on a profile
// switch while the Poller's consumer goroutine is still feeding readings.
type Engine struct {
	mu         sync.Mutex
	thresholds []store.Threshold
	lastFired  map[string]time.Time // threshold ID -> last fire time
}

// New creates an Engine with no thresholds loaded.
func New() *Engine {
	return &Engine{lastFired: make(map[string]time.Time)}
}

// Reload replaces the threshold set: cooldown tracking resets on profile
// reload. Thresholds that no longer exist are forgotten, and any
// threshold ID present both before and after keeps no memory of its
// prior cooldown, so a just-switched profile can alert
// immediately on first breach.
func (e *Engine) Reload(thresholds []store.Threshold) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.thresholds = thresholds
	e.lastFired = make(map[string]time.Time)
}

// Evaluate checks reading against every loaded threshold for its
// parameter and returns the AlertEvents that fired (zero or more per
// reading, since multiple thresholds may match one parameter).
func (e *Engine) Evaluate(now time.Time, r store.Reading) []store.AlertEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fired []store.AlertEvent

	for _, th := range e.thresholds {
		if th.Parameter != r.Parameter {
			continue
		}

		if !breaches(th, r.Value) {
			continue
		}

		if last, ok := e.lastFired[th.ID]; ok {
			if now.Sub(last) < time.Duration(th.CooldownMs)*time.Millisecond {
				continue
			}
		}

		e.lastFired[th.ID] = now

		fired = append(fired, store.AlertEvent{
			ThresholdID: th.ID,
			ReadingTs:   r.TimestampMs,
			Value:       r.Value,
			ProfileID:   r.ProfileID,
		})
	}

	return fired
}

func breaches(th store.Threshold, value float64) bool {
	switch th.Direction {
	case "above":
		return value > th.Value
	case "below":
		return value < th.Value
	default:
		return false
	}
}
