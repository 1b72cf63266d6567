package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/rulebook"
	"github.com/awantoch/promptgate/storage"
	"github.com/awantoch/promptgate/utils"
)

// maxKVBody caps PUT /kv bodies.
const maxKVBody = 1 << 20

var healthBody = []byte(`{"status":"` + constants.HealthStatusOK + `"}`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Error("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(healthBody)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, constants.ResponseRouteNotFound+": "+r.Method+" "+r.URL.Path)
}

// GET /rulebook
func (r *Router) rulebookHandler(w http.ResponseWriter, req *http.Request) {
	content, err := r.cache.Get(req.Context())
	if err != nil {
		var upErr *rulebook.UpstreamFetchError
		switch {
		case errors.As(err, &upErr) && upErr.Timeout():
			writeError(w, http.StatusGatewayTimeout, constants.ResponseRulebookTimeout)
		case errors.As(err, &upErr):
			writeError(w, http.StatusBadGateway, constants.ResponseRulebookUnavailable)
		case errors.Is(err, context.Canceled):
			utils.DebugCtx(req.Context(), "client went away waiting for rulebook")
		default:
			utils.ErrorCtx(req.Context(), "rulebook lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, constants.ResponseInternalError)
		}
		return
	}
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeText)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

// requireServiceKey admits requests bearing the service role key.
func (r *Router) requireServiceKey(next http.Handler) http.Handler {
	want := []byte(r.cfg.Backend.ServiceKey)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token, ok := strings.CutPrefix(req.Header.Get(constants.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			writeError(w, http.StatusUnauthorized, constants.ResponseUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// GET /kv/{key}
func (r *Router) kvGetHandler(w http.ResponseWriter, req *http.Request) {
	value, err := r.kv.Get(req.Context(), req.PathValue("key"))
	if err != nil {
		r.kvError(w, req, err)
		return
	}
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// PUT /kv/{key}
func (r *Router) kvPutHandler(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxKVBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, constants.ResponseBodyTooLarge)
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, constants.ResponseInvalidJSONBody)
		return
	}
	if err := r.kv.Set(req.Context(), req.PathValue("key"), body); err != nil {
		r.kvError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /kv/{key}
func (r *Router) kvDeleteHandler(w http.ResponseWriter, req *http.Request) {
	if err := r.kv.Delete(req.Context(), req.PathValue("key")); err != nil {
		r.kvError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) kvError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, constants.ResponseKeyNotFound)
	case errors.Is(err, storage.ErrInvalidKey), errors.Is(err, storage.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		utils.ErrorCtx(req.Context(), "kv operation failed", "method", req.Method, "error", err)
		writeError(w, http.StatusBadGateway, constants.ResponseKVUnavailable)
	}
}
