package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func TestRun_WorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("redis", FromError(up))
	c.Register("journal", Degraded(func(context.Context) error { return errors.New("no postgres") }))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "no postgres", report.Components["journal"].Message)

	c.Register("index_root", FromError(func(context.Context) error { return errors.New("read-only filesystem") }))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestHandlers(t *testing.T) {
	c := NewChecker()
	c.Register("redis", FromError(up))
	mux := http.NewServeMux()
	c.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusUp, report.Components["redis"].Status)

	c.Register("redis", FromError(func(context.Context) error { return errors.New("connection refused") }))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
