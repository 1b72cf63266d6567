package http

import (
	"net/http"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/rulebook"
	"github.com/awantoch/promptgate/storage"
	"github.com/awantoch/promptgate/telemetry"
)

// Interceptor wraps a handler with a cross-cutting step.
type Interceptor func(http.Handler) http.Handler

// Chain applies interceptors around h. The first interceptor is outermost
// and sees the request first.
func Chain(h http.Handler, interceptors ...Interceptor) http.Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}
	return h
}

// DefaultInterceptors is the order every request passes through before
// route dispatch.
func DefaultInterceptors() []Interceptor {
	return []Interceptor{RequestIDInterceptor, LoggingInterceptor, TelemetryInterceptor, CORSInterceptor}
}

// Router serves the promptgate HTTP surface.
type Router struct {
	cfg     *config.Config
	cache   *rulebook.Cache
	kv      storage.KV
	mux     *http.ServeMux
	handler http.Handler
}

// NewRouter validates cfg and registers every route. A nil cache or kv
// leaves the matching routes unregistered.
func NewRouter(cfg *config.Config, cache *rulebook.Cache, kv storage.KV) (*Router, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	r := &Router{
		cfg:   cfg,
		cache: cache,
		kv:    kv,
		mux:   http.NewServeMux(),
	}
	r.routes()
	r.handler = Chain(r.mux, DefaultInterceptors()...)
	return r, nil
}

func (r *Router) routes() {
	p := constants.RoutePrefix
	r.mux.HandleFunc(constants.HTTPMethodGET+" "+p+constants.RouteHealth, healthHandler)
	if r.cache != nil {
		r.mux.HandleFunc(constants.HTTPMethodGET+" "+p+constants.RouteRulebook, r.rulebookHandler)
	}
	if r.kv != nil {
		kv := p + constants.RouteKV
		r.mux.Handle(constants.HTTPMethodGET+" "+kv, r.requireServiceKey(http.HandlerFunc(r.kvGetHandler)))
		r.mux.Handle(constants.HTTPMethodPUT+" "+kv, r.requireServiceKey(http.HandlerFunc(r.kvPutHandler)))
		r.mux.Handle(constants.HTTPMethodDELETE+" "+kv, r.requireServiceKey(http.HandlerFunc(r.kvDeleteHandler)))
	}
	if r.cfg.Metrics.Enabled {
		r.mux.Handle(constants.HTTPMethodGET+" "+constants.RouteMetrics, telemetry.MetricsHandler())
	}
	r.mux.HandleFunc("/", notFoundHandler)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
