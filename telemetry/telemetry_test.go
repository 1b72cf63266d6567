package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/promptgate/config"
)

func TestInit(t *testing.T) {
	configs := []*config.Config{
		nil,
		{},
		{Tracing: &config.TracingConfig{Exporter: "none"}},
		{Tracing: &config.TracingConfig{ServiceName: "test-service", Exporter: "stdout"}},
		{Tracing: &config.TracingConfig{ServiceName: "test-otlp", Exporter: "otlp", Endpoint: "http://localhost:4318"}},
		{Tracing: &config.TracingConfig{ServiceName: "test-otlp-default", Exporter: "otlp"}},
	}
	for i, cfg := range configs {
		shutdown, err := Init(cfg)
		require.NoError(t, err, "config %d", i)
		require.NotNil(t, shutdown)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = shutdown(ctx)
		cancel()
	}
}

func TestWrapHandler(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom-Header", "custom-value")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("method: " + r.Method))
	})
	wrapped := WrapHandler("wrap-test", testHandler)

	for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		req := httptest.NewRequest(method, "/test", nil)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "method: "+method, rec.Body.String())
		assert.Equal(t, "custom-value", rec.Header().Get("X-Custom-Header"))
	}
}

func TestWrapHandler_ImplicitOK(t *testing.T) {
	wrapped := WrapHandler("implicit", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("part1"))
		w.Write([]byte("part2"))
	}))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "part1part2", rec.Body.String())
}

func TestWrapHandler_PropagatesPanics(t *testing.T) {
	wrapped := WrapHandler("panic-test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))
	assert.Panics(t, func() {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/panic", nil))
	})
}

func TestMetricsHandler(t *testing.T) {
	// produce at least one sample for every vector
	WrapHandler("metrics-test", http.NotFoundHandler()).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
	ObserveRulebookLookup("hit")
	ObserveRulebookFetch("ok", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, pattern := range []string{
		"# HELP",
		"# TYPE",
		`promptgate_http_requests_total{code="404",handler="metrics-test",method="GET"}`,
		"promptgate_http_request_duration_seconds",
		`promptgate_rulebook_lookups_total{result="hit"}`,
		`promptgate_rulebook_fetch_duration_seconds_count{outcome="ok"}`,
	} {
		assert.Contains(t, body, pattern)
	}
}
