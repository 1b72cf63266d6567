package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/rulebook"
	"github.com/awantoch/promptgate/storage"
	"github.com/awantoch/promptgate/utils"
)

const testServiceKey = "service-role-key"

type funcSource func(ctx context.Context) (string, error)

func (f funcSource) Name() string                              { return "test" }
func (f funcSource) Fetch(ctx context.Context) (string, error) { return f(ctx) }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend.URL = "https://proj.example.co"
	cfg.Backend.ServiceKey = testServiceKey
	cfg.Storage.Driver = constants.StorageDriverMemory
	return cfg
}

func newTestRouter(t *testing.T, src rulebook.Source, opts ...rulebook.Option) *Router {
	t.Helper()
	if src == nil {
		src = funcSource(func(context.Context) (string, error) { return "RULES_V1", nil })
	}
	r, err := NewRouter(testConfig(), rulebook.NewCache(src, opts...), storage.NewMemoryStore())
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := rec.Header()
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Length", h.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", h.Get("Access-Control-Max-Age"))
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, headers := range []map[string]string{
		nil,
		{"Accept": "text/html"},
		{"Authorization": "Bearer nope", "Content-Type": "text/plain"},
		{"Origin": "https://app.example.com"},
	} {
		rec := do(r, "GET", constants.RoutePrefix+"/health", "", headers)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"status":"ok"}`, rec.Body.String())
		assert.Equal(t, constants.ContentTypeJSON, rec.Header().Get("Content-Type"))
		assertCORS(t, rec)
	}
}

func TestPreflight(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, path := range []string{
		"/",
		constants.RoutePrefix + "/health",
		constants.RoutePrefix + "/kv/anything",
		"/no/such/route",
	} {
		rec := do(r, "OPTIONS", path, "", map[string]string{"Access-Control-Request-Method": "PUT"})
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
		assertCORS(t, rec)
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(r, "GET", constants.RoutePrefix+"/health", "", nil)
	assert.Len(t, rec.Header().Get(constants.HeaderRequestID), 36)

	rec = do(r, "GET", constants.RoutePrefix+"/health", "", map[string]string{constants.HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(constants.HeaderRequestID))
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, tc := range []struct{ method, path string }{
		{"GET", "/"},
		{"GET", "/health"},
		{"GET", constants.RoutePrefix + "/nope"},
		{"POST", constants.RoutePrefix + "/health"},
	} {
		rec := do(r, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), `"error"`)
		assertCORS(t, rec)
	}
}

func TestRulebookRoute(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := do(r, "GET", constants.RoutePrefix+"/rulebook", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RULES_V1", rec.Body.String())
	assert.Equal(t, constants.ContentTypeText, rec.Header().Get("Content-Type"))
}

func TestRulebookRoute_UpstreamFailure(t *testing.T) {
	r := newTestRouter(t, funcSource(func(context.Context) (string, error) {
		return "", errors.New("connection refused")
	}))
	rec := do(r, "GET", constants.RoutePrefix+"/rulebook", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"rulebook unavailable"}`, rec.Body.String())
}

func TestRulebookRoute_Timeout(t *testing.T) {
	r := newTestRouter(t, funcSource(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), rulebook.WithFetchTimeout(10*time.Millisecond))
	rec := do(r, "GET", constants.RoutePrefix+"/rulebook", "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestKVRoutes(t *testing.T) {
	r := newTestRouter(t, nil)
	auth := map[string]string{"Authorization": "Bearer " + testServiceKey}
	path := constants.RoutePrefix + "/kv/prompt:1"

	rec := do(r, "GET", path, "", auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, "PUT", path, `{"text":"hello"}`, auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, "GET", path, "", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"hello"}`, rec.Body.String())
	assert.Equal(t, constants.ContentTypeJSON, rec.Header().Get("Content-Type"))

	rec = do(r, "PUT", path, `not json`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "PUT", path, ``, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "DELETE", path, "", auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, "GET", path, "", auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKVRoutes_RequireServiceKey(t *testing.T) {
	r := newTestRouter(t, nil)
	path := constants.RoutePrefix + "/kv/secret"
	for _, headers := range []map[string]string{
		nil,
		{"Authorization": testServiceKey},
		{"Authorization": "Bearer wrong"},
		{"Authorization": "Basic " + testServiceKey},
	} {
		for _, method := range []string{"GET", "PUT", "DELETE"} {
			rec := do(r, method, path, `{}`, headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %v", method, headers)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	r := newTestRouter(t, nil)
	do(r, "GET", constants.RoutePrefix+"/health", "", nil)

	rec := do(r, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "promptgate_http_requests_total")

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	off, err := NewRouter(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, do(off, "GET", "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(off, "GET", constants.RoutePrefix+"/rulebook", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(off, "GET", constants.RoutePrefix+"/health", "", nil).Code)
}

func TestNewRouter_RequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Backend.ServiceKey = ""
	cfg.Backend.URL = ""

	r, err := NewRouter(cfg, nil, storage.NewMemoryStore())
	assert.Nil(t, r)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{constants.EnvBackendURL, constants.EnvServiceKey}, cfgErr.Missing)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Interceptor {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"), mark("third"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"first", "second", "third", "handler"}, order)
}

func TestLoggingInterceptor_DoesNotAlterResponse(t *testing.T) {
	var seen []*http.Request
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		w.Header().Set("X-Test", "1")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	bare := httptest.NewRecorder()
	handler.ServeHTTP(bare, httptest.NewRequest("GET", "/pot", nil))

	wrapped := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pot", nil)
	LoggingInterceptor(handler).ServeHTTP(wrapped, req)

	assert.Equal(t, bare.Code, wrapped.Code)
	assert.Equal(t, bare.Body.String(), wrapped.Body.String())
	assert.Equal(t, bare.Header(), wrapped.Header())
	require.Len(t, seen, 2)
	assert.Same(t, req, seen[1], "handler receives the request untouched")
}

func TestRequestIDInterceptor(t *testing.T) {
	var got string
	h := RequestIDInterceptor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = utils.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get(constants.HeaderRequestID))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(constants.HeaderRequestID, "abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", got)
	assert.Equal(t, "abc-123", rec.Header().Get(constants.HeaderRequestID))
}

func TestLoggingInterceptor_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	utils.SetInternalOutput(&buf)
	t.Cleanup(func() { utils.SetInternalOutput(nil) })

	r := newTestRouter(t, nil)
	rec := do(r, "GET", constants.RoutePrefix+"/health", "", map[string]string{constants.HeaderRequestID: "log-me-42"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "log-me-42")
	assert.Contains(t, buf.String(), constants.RoutePrefix+"/health")
}
