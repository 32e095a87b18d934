// Package obd implements the ObdLink contract: connect/query/disconnect
// over a Bluetooth-serial ELM327-compatible dongle, or a simulator when no
// real hardware is present. OBD-II wire protocol decoding itself is out of
// scope — this package speaks only the connect/query/disconnect/state
// contract the orchestrator consumes.
package obd

import (
	"context"
	"fmt"
)

// State enumerates ObdLink's own connectivity state, separate from the
// orchestrator's connection recovery state machine (which wraps an ObdLink
// instance and decides when to call Connect/Disconnect).
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

// Sample is one parameter/value/unit reading from a single Query call.
type Sample struct {
	Parameter string
	Value     float64
	Unit      string
}

// Link is the capability interface the orchestrator's connection recovery
// state machine drives. Exactly one of Serial or Simulator is constructed
// per process, chosen by config.
type Link interface {
	// Connect establishes the dongle session. attempt is the current retry
	// index, for logging/metrics only — backoff timing itself lives in
	// the orchestrator.
	Connect(ctx context.Context, attempt int) error
	// Query samples one parameter. Returns a classify.Data error for an
	// unsupported/missing parameter, a classify.Retryable error for a
	// transient I/O failure.
	Query(ctx context.Context, parameter string) (Sample, error)
	// Disconnect releases the underlying handle. Idempotent.
	Disconnect(ctx context.Context) error
	// State reports the link's last-known connectivity state.
	State() State
}

// ErrUnsupportedParameter is wrapped with classify.Data by implementations
// when a requested parameter has no mapping.
type ErrUnsupportedParameter struct {
	Parameter string
}

func (e *ErrUnsupportedParameter) Error() string {
	return fmt.Sprintf("obd: unsupported parameter %q", e.Parameter)
}
