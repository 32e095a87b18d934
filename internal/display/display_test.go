package display

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHeadless_DoesNotPanic(t *testing.T) {
	h := NewHeadless(testLogger())
	h.Update(store.Reading{Parameter: "RPM", Value: 1200})
	h.ShowAlert(store.AlertEvent{ThresholdID: "t1"})
	h.ShowBattery(80, store.PowerMains)
	require.NoError(t, h.Close())
}

func TestText_UpdateWritesParameterLine(t *testing.T) {
	var buf bytes.Buffer

	text := NewText(&buf)
	text.Update(store.Reading{Parameter: "RPM", Value: 1234.5, Unit: "rpm"})

	assert.Contains(t, buf.String(), "RPM=")
}

func TestText_ShowAlertWritesBanner(t *testing.T) {
	var buf bytes.Buffer

	text := NewText(&buf)
	text.ShowAlert(store.AlertEvent{ThresholdID: "coolant-hot", Value: 110})

	assert.True(t, strings.Contains(buf.String(), "coolant-hot"))
}

func TestWebSocket_BroadcastsToConnectedRenderer(t *testing.T) {
	ws := NewWebSocket(testLogger())

	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Give the server goroutine a moment to register the connection.
	time.Sleep(50 * time.Millisecond)

	ws.Update(store.Reading{Parameter: "RPM", Value: 900, Unit: "rpm"})

	var cmd Command

	readCtx, readCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readCancel()

	require.NoError(t, wsjson.Read(readCtx, conn, &cmd))
	assert.Equal(t, "reading", cmd.Kind)
	require.NotNil(t, cmd.Reading)
	assert.Equal(t, "RPM", cmd.Reading.Parameter)
}

func TestCommand_MarshalsReadingField(t *testing.T) {
	cmd := Command{Kind: "reading", Reading: &store.Reading{Parameter: "SPEED", Value: 50}}

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parameter":"SPEED"`) // confirms Reading is embedded, not omitted
}
