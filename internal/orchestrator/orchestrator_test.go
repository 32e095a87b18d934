package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/alert"
	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/obd"
	"github.com/obdsentry/obdsentryd/internal/profile"
)

func minimalOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	s := openTestStore(t)
	link := obd.NewSimulator(1, 800)

	profiles, err := profile.Load(context.Background(), s, &config.Config{})
	require.NoError(t, err)

	o := &Orchestrator{
		logger:      discardLogger(),
		store:       s,
		profiles:    profiles,
		switcher:    profile.NewSwitcher(),
		active:      profile.NewActiveProfile("daily"),
		alerts:      alert.New(),
		conn:        NewConnection(link, s, func() {}, func() {}, discardLogger()),
		startedAt:   time.Now().Add(-time.Minute),
		errorCounts: map[string]int64{},
	}

	return o
}

func TestOrchestrator_Status(t *testing.T) {
	o := minimalOrchestrator(t)
	o.readingCount = 42
	o.lastReadingsPerMin = 3.5
	o.openDriveID = "drive-1"

	snap := o.Status()

	assert.Equal(t, "disconnected", snap.ConnectionState)
	assert.Equal(t, int64(42), snap.ReadingsTotal)
	assert.Equal(t, 3.5, snap.ReadingsPerMin)
	assert.Equal(t, "daily", snap.ActiveProfile)
	assert.Equal(t, "drive-1", snap.OpenDriveID)
	assert.GreaterOrEqual(t, snap.UptimeSec, 59.0)
}

func TestOrchestrator_StatusHandler_ServesJSON(t *testing.T) {
	o := minimalOrchestrator(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status", nil)

	o.statusHandler()(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "daily", snap["active_profile"])
}

func TestOrchestrator_RecordError_AccumulatesByCategory(t *testing.T) {
	o := minimalOrchestrator(t)

	o.recordError("data", errors.New("bad reading"))
	o.recordError("data", errors.New("bad reading again"))
	o.recordError("system", errors.New("disk full"))

	snap := o.Status()
	assert.Equal(t, int64(2), snap.ErrorCounts["data"])
	assert.Equal(t, int64(1), snap.ErrorCounts["system"])
}

func TestOrchestrator_CurrentDriveID(t *testing.T) {
	o := minimalOrchestrator(t)
	assert.Equal(t, "", o.currentDriveID())

	o.mu.Lock()
	o.openDriveID = "drive-42"
	o.mu.Unlock()

	assert.Equal(t, "drive-42", o.currentDriveID())
}

func TestOrchestrator_ProfileHandler_QueuesKnownProfile(t *testing.T) {
	o := minimalOrchestrator(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/profile", strings.NewReader(`{"id":"daily"}`))

	o.profileHandler()(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "daily", o.switcher.ApplyPending())
}

func TestOrchestrator_ProfileHandler_RejectsUnknownProfile(t *testing.T) {
	o := minimalOrchestrator(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/profile", strings.NewReader(`{"id":"nonexistent"}`))

	o.profileHandler()(rec, req)

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "", o.switcher.ApplyPending(), "an unknown profile must not be queued")
}

func TestOrchestrator_RequestReload_NonBlocking(t *testing.T) {
	o := minimalOrchestrator(t)
	o.reloadReq = make(chan struct{}, 1)

	o.RequestReload()
	o.RequestReload() // must not block even though the channel is now full

	select {
	case <-o.reloadReq:
	default:
		t.Fatal("expected a pending reload request")
	}
}
