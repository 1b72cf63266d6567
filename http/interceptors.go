package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/telemetry"
	"github.com/awantoch/promptgate/utils"
)

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wrote {
		s.status = code
		s.wrote = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wrote {
		s.status = http.StatusOK
		s.wrote = true
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestIDInterceptor gives every request an id, carried in the context
// and echoed in X-Request-Id. An incoming X-Request-Id is kept.
func RequestIDInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(constants.HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(constants.HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), reqID)))
	})
}

// LoggingInterceptor logs method, path, status and duration once the request
// completes. It only observes: the request and response pass through as is.
func LoggingInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		utils.InfoCtx(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// CORSInterceptor sets the cross-origin headers on every response and
// answers preflight requests itself.
func CORSInterceptor(next http.Handler) http.Handler {
	maxAge := strconv.Itoa(constants.CORSMaxAgeSeconds)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", constants.CORSAllowOrigin)
		h.Set("Access-Control-Allow-Headers", constants.CORSAllowHeaders)
		h.Set("Access-Control-Allow-Methods", constants.CORSAllowMethods)
		h.Set("Access-Control-Expose-Headers", constants.CORSExposeHeaders)
		h.Set("Access-Control-Max-Age", maxAge)
		if r.Method == constants.HTTPMethodOPTIONS {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TelemetryInterceptor traces the request and records prometheus metrics.
func TelemetryInterceptor(next http.Handler) http.Handler {
	return telemetry.WrapHandler(constants.DefaultServiceName, next)
}
