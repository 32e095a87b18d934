package display

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// WebSocket broadcasts render Commands as JSON frames to every connected
// renderer. A slow or absent consumer never blocks obdsentryd: writes use
// a short per-connection deadline and a disconnected consumer is simply
// dropped from the broadcast set.
type WebSocket struct {
	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	logger  *slog.Logger
	timeout time.Duration
}

// NewWebSocket creates a WebSocket driver. Call Handler to obtain the
// http.HandlerFunc to mount at hardware.display_ws_addr.
func NewWebSocket(logger *slog.Logger) *WebSocket {
	return &WebSocket{
		conns:   make(map[*websocket.Conn]struct{}),
		logger:  logger,
		timeout: time.Second,
	}
}

// Handler accepts incoming renderer connections.
func (d *WebSocket) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			d.logger.Warn("display: websocket accept failed", "error", err)

			return
		}

		d.mu.Lock()
		d.conns[conn] = struct{}{}
		d.mu.Unlock()

		defer func() {
			d.mu.Lock()
			delete(d.conns, conn)
			d.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "")
		}()

		// Block on the connection's own lifetime; the renderer never sends
		// us anything, it only receives broadcasts.
		ctx := r.Context()
		for ctx.Err() == nil {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}
}

func (d *WebSocket) broadcast(cmd Command) {
	d.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(d.conns))

	for c := range d.conns {
		targets = append(targets, c)
	}
	d.mu.Unlock()

	for _, c := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := wsjson.Write(ctx, c, cmd)
		cancel()

		if err != nil {
			d.logger.Debug("display: dropping unresponsive renderer", "error", err)

			d.mu.Lock()
			delete(d.conns, c)
			d.mu.Unlock()
		}
	}
}

func (d *WebSocket) Update(r store.Reading) {
	reading := r
	d.broadcast(Command{Kind: "reading", Ts: time.Now(), Reading: &reading})
}

func (d *WebSocket) ShowDriveBoundary(kind store.ConnectionEventKind, ts time.Time) {
	d.broadcast(Command{Kind: "drive_boundary", Ts: ts, Drive: &DriveBoundaryPayload{Kind: kind}})
}

func (d *WebSocket) ShowSummary(results []store.AnalysisResult) {
	d.broadcast(Command{Kind: "summary", Ts: time.Now(), Summary: results})
}

func (d *WebSocket) ShowAlert(e store.AlertEvent) {
	event := e
	d.broadcast(Command{Kind: "alert", Ts: time.Now(), Alert: &event})
}

func (d *WebSocket) ShowBattery(socPct int, source store.PowerSource) {
	d.broadcast(Command{Kind: "battery", Ts: time.Now(), Battery: &BatteryPayload{SocPct: socPct, Source: source}})
}

func (d *WebSocket) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for c := range d.conns {
		c.Close(websocket.StatusNormalClosure, "shutting down")
	}

	d.conns = make(map[*websocket.Conn]struct{})

	return nil
}
