package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesRegisteredCollectors(t *testing.T) {
	m := New()
	m.ReadingsTotal.WithLabelValues("RPM").Inc()
	m.ConnectionState.Set(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "obdsentry_readings_total"))
	assert.True(t, strings.Contains(body, "obdsentry_connection_state 2"))
}

func TestNew_IndependentRegistriesDoNotCollide(t *testing.T) {
	a := New()
	b := New()

	a.DriveSessionsTotal.Inc()
	assert.NotPanics(t, func() { b.Handler() })
}
