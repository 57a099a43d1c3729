package controlhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"keel/internal/daemon"
	"keel/internal/health"
	"keel/internal/store/eventlog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubController struct {
	startErr    error
	stopped     []string
	paused      []string
	resumed     int
	resetNames  []string
	resetErr    error
	healthErr   error
	healthScore int
}

func (s *stubController) Start(context.Context) error { return s.startErr }
func (s *stubController) Stop(reason string)          { s.stopped = append(s.stopped, reason) }
func (s *stubController) Pause(reason string)         { s.paused = append(s.paused, reason) }
func (s *stubController) Resume()                     { s.resumed++ }

func (s *stubController) Status(context.Context) (daemon.Status, error) {
	return daemon.Status{Running: true, TotalValue: 10000, Positions: 2}, nil
}

func (s *stubController) HealthCheck(context.Context) (health.HealthReport, error) {
	if s.healthErr != nil {
		return health.HealthReport{}, s.healthErr
	}
	return health.HealthReport{Status: health.StatusHealthy, RiskScore: s.healthScore}, nil
}

func (s *stubController) ResetBreaker(name string) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resetNames = append(s.resetNames, name)
	return nil
}

type stubEvents struct {
	entries []eventlog.Entry
}

func (s *stubEvents) Recent(_ context.Context, n int) ([]eventlog.Entry, error) {
	if n < len(s.entries) {
		return s.entries[:n], nil
	}
	return s.entries, nil
}

func newTestRouter(ctrl DaemonController, events EventReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewRouter(ctrl, events).Register(engine.Group("/api/control"))
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	engine := newTestRouter(&stubController{}, nil)
	rec := doRequest(t, engine, http.MethodGet, "/api/control/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st daemon.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Running)
	assert.Equal(t, float64(10000), st.TotalValue)
	assert.Equal(t, 2, st.Positions)
}

func TestHealthEndpointStableShape(t *testing.T) {
	engine := newTestRouter(&stubController{healthScore: 42}, nil)
	rec := doRequest(t, engine, http.MethodGet, "/api/control/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"status", "risk_score", "metrics", "circuit_breakers", "active_alerts", "recommendations", "daemon", "risk"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, float64(42), body["risk_score"])
}

func TestHealthEndpointError(t *testing.T) {
	engine := newTestRouter(&stubController{healthErr: errors.New("store down")}, nil)
	rec := doRequest(t, engine, http.MethodGet, "/api/control/health", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPauseRequiresReason(t *testing.T) {
	ctrl := &stubController{}
	engine := newTestRouter(ctrl, nil)

	rec := doRequest(t, engine, http.MethodPost, "/api/control/pause", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ctrl.paused)

	rec = doRequest(t, engine, http.MethodPost, "/api/control/pause", `{"reason":"maintenance"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ctrl.paused, 1)
	assert.Equal(t, "maintenance", ctrl.paused[0])
}

func TestResumeAndStop(t *testing.T) {
	ctrl := &stubController{}
	engine := newTestRouter(ctrl, nil)

	rec := doRequest(t, engine, http.MethodPost, "/api/control/resume", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.resumed)

	rec = doRequest(t, engine, http.MethodPost, "/api/control/stop", `{"reason":"eod"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ctrl.stopped, 1)
	assert.Equal(t, "eod", ctrl.stopped[0])
}

func TestStartConflict(t *testing.T) {
	engine := newTestRouter(&stubController{startErr: errors.New("daemon already running")}, nil)
	rec := doRequest(t, engine, http.MethodPost, "/api/control/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	events := &stubEvents{entries: []eventlog.Entry{
		{Level: "info", Component: "daemon", Message: "started"},
		{Level: "warn", Component: "daemon", Message: "paused: drill"},
	}}
	engine := newTestRouter(&stubController{}, events)

	rec := doRequest(t, engine, http.MethodGet, "/api/control/logs?n=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int              `json:"count"`
		Entries []eventlog.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	rec = doRequest(t, engine, http.MethodGet, "/api/control/logs?n=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBreakerReset(t *testing.T) {
	ctrl := &stubController{}
	engine := newTestRouter(ctrl, nil)

	rec := doRequest(t, engine, http.MethodPost, "/api/control/breakers/drawdown/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ctrl.resetNames, 1)
	assert.Equal(t, "drawdown", ctrl.resetNames[0])

	ctrl.resetErr = errors.New("unknown breaker")
	rec = doRequest(t, engine, http.MethodPost, "/api/control/breakers/bogus/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
