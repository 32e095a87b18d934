// Package drive implements DriveDetector: a state machine over RPM
// readings that emits drive_start and drive_end transitions.
package drive

import "time"

// State enumerates DriveDetector's states.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Config holds the RPM thresholds and hold durations.
type Config struct {
	StartRpm   float64
	StartHold  time.Duration
	EndRpm     float64
	EndHold    time.Duration
}

// Transition is the result of feeding one RPM sample: exactly one of
// Start or End is true when a boundary fires.
type Transition struct {
	Start bool
	End   bool
}

// Detector is not safe for concurrent use — the orchestrator drives it
// exclusively from the Poller reading consumer; no global mutable state,
// components communicate only via explicit event channels.
type Detector struct {
	cfg   Config
	state State

	// heldSince is when the current hold condition started being true, or
	// the zero Time if not currently held. A dip below start_rpm while
	// Starting resets this.
	heldSince time.Time
}

// New creates a Detector in the Stopped state.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg, state: Stopped}
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Feed processes one RPM sample at timestamp ts and returns any boundary
// transition. Held conditions reset on a dip; transitions fire only once
// the hold duration has elapsed continuously.
func (d *Detector) Feed(ts time.Time, rpm float64) Transition {
	switch d.state {
	case Stopped:
		if rpm >= d.cfg.StartRpm {
			d.state = Starting
			d.heldSince = ts
		}

		return Transition{}

	case Starting:
		if rpm < d.cfg.StartRpm {
			// Dip resets the hold timer.
			d.heldSince = time.Time{}
			d.state = Stopped

			return Transition{}
		}

		if d.heldSince.IsZero() {
			d.heldSince = ts
		}

		if ts.Sub(d.heldSince) >= d.cfg.StartHold {
			d.state = Running
			d.heldSince = time.Time{}

			return Transition{Start: true}
		}

		return Transition{}

	case Running:
		if rpm <= d.cfg.EndRpm {
			d.state = Stopping
			d.heldSince = ts
		}

		return Transition{}

	case Stopping:
		if rpm > d.cfg.EndRpm {
			// Dip (i.e. engine-on blip) resets the hold timer and returns
			// to Running.
			d.heldSince = time.Time{}
			d.state = Running

			return Transition{}
		}

		if d.heldSince.IsZero() {
			d.heldSince = ts
		}

		if ts.Sub(d.heldSince) >= d.cfg.EndHold {
			d.state = Stopped
			d.heldSince = time.Time{}

			return Transition{End: true}
		}

		return Transition{}
	}

	return Transition{}
}
