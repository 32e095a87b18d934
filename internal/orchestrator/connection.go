package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/obdsentry/obdsentryd/internal/obd"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// ConnState enumerates the connection recovery state machine's states:
// Disconnected -> Connecting -> Connected -> Degraded -> Reconnecting ->
// Disconnected.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Degraded
	Reconnecting
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

const (
	backoffBase = 1 * time.Second
	backoffCap  = 16 * time.Second
)

// Connection drives ObdLink.connect/disconnect under a reconnect loop with
// exponential backoff, pausing and resuming Poller so no reading is ever
// produced while the link is not Connected.
type Connection struct {
	link   obd.Link
	store  *store.Store
	logger *slog.Logger

	onConnected    func()
	onDisconnected func()

	state   ConnState
	backoff retry.Backoff
}

// NewConnection creates a Connection in the Disconnected state.
func NewConnection(link obd.Link, s *store.Store, onConnected, onDisconnected func(), logger *slog.Logger) *Connection {
	return &Connection{
		link:           link,
		store:          s,
		logger:         logger,
		onConnected:    onConnected,
		onDisconnected: onDisconnected,
		state:          Disconnected,
		backoff:        newReconnectBackoff(),
	}
}

// newReconnectBackoff builds the min(base*2^attempt, cap) schedule
// (base=1s, cap=16s) atop go-retry's exponential backoff helper.
func newReconnectBackoff() retry.Backoff {
	b, err := retry.NewExponential(backoffBase)
	if err != nil {
		panic(err)
	}

	return retry.WithCappedDuration(backoffCap, b)
}

// State reports the current connection state. Only ever called from the
// orchestrator's own goroutine, so no locking is needed.
func (c *Connection) State() ConnState {
	return c.state
}

// Run drives the connect/reconnect loop until ctx is canceled, at which
// point it disconnects unconditionally and returns — "an explicit manual
// stop forces transition to Disconnected without further retries."
func (c *Connection) Run(ctx context.Context) {
	attempt := 0

	for {
		c.state = Connecting

		err := c.link.Connect(ctx, attempt)
		if ctx.Err() != nil {
			c.disconnect(context.Background())

			return
		}

		if err == nil {
			c.state = Connected
			attempt = 0
			c.backoff = newReconnectBackoff()
			c.onConnected()

			if appendErr := c.store.AppendConnectionEvent(ctx, store.ConnectionEvent{
				Ts: time.Now().UnixMilli(), Kind: store.EventConnected,
			}); appendErr != nil {
				c.logger.Warn("orchestrator: recording connected event failed", "error", appendErr)
			}

			select {
			case <-ctx.Done():
				c.disconnect(context.Background())

				return
			case <-c.waitForDrop(ctx):
				// fall through to Reconnecting below
			}

			continue
		}

		wait, _ := c.backoff.Next()
		attempt++
		c.state = Reconnecting

		c.logger.Warn("orchestrator: obd link connect failed, backing off",
			"attempt", attempt, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			c.disconnect(context.Background())

			return
		case <-time.After(wait):
		}
	}
}

// waitForDrop blocks until the link reports it is no longer connected, by
// polling State() at a modest interval — ObdLink has no push-based
// disconnect notification in its contract (§1: only connect/query/
// disconnect/state).
func (c *Connection) waitForDrop(ctx context.Context) <-chan struct{} {
	dropped := make(chan struct{})

	go func() {
		defer close(dropped)

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.link.State() != obd.StateConnected {
					c.onDisconnected()

					if err := c.store.AppendConnectionEvent(ctx, store.ConnectionEvent{
						Ts: time.Now().UnixMilli(), Kind: store.EventDisconnected,
					}); err != nil {
						c.logger.Warn("orchestrator: recording disconnected event failed", "error", err)
					}

					return
				}
			}
		}
	}()

	return dropped
}

func (c *Connection) disconnect(ctx context.Context) {
	if c.state == Connected || c.state == Degraded {
		c.onDisconnected()
	}

	c.state = Disconnected

	if err := c.link.Disconnect(ctx); err != nil {
		c.logger.Warn("orchestrator: obd link disconnect failed", "error", err)
	}
}
