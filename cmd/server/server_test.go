package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/inkbird-exporter/pkg/config"
	"github.com/inkbird-exporter/pkg/metrics"
	"github.com/inkbird-exporter/pkg/signal"
)

func newTestServer(t *testing.T, run *signal.RunState) *Server {
	t.Helper()
	reg := metrics.NewRegistry(false)
	f := metrics.NewMetricFactory(metrics.NewPromRegistry(reg))
	f.NewProbeTemperature().WithLabelValues("0").Set(22.8)

	cfg := config.NewDefaultConfig().Server
	return NewHTTPServer(&cfg, zaptest.NewLogger(t), reg, run)
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, signal.NewRunState())

	code, body := get(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `inkbird_ibt_temperature{probe="0"} 22.8`)
}

func TestHealthFollowsRunState(t *testing.T) {
	run := signal.NewRunState()
	srv := newTestServer(t, run)

	code, body := get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	run.Stop("test")
	code, _ = get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestIndexAndNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	code, body := get(t, srv.Handler(), "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/metrics")

	code, _ = get(t, srv.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStartAndShutdown(t *testing.T) {
	run := signal.NewRunState()
	srv := newTestServer(t, run)
	srv.cfg.Addr = "127.0.0.1:0"

	require.NoError(t, srv.Start())
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.True(t, run.Running(), "a clean shutdown does not stop the run state")
}

func TestStartFailsOnBusyPort(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()

	srv := newTestServer(t, signal.NewRunState())
	srv.cfg.Addr = busy.Listener.Addr().String()
	assert.Error(t, srv.Start())
}
