package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/joho/godotenv"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/utils"
)

// serverlessState is one initialization generation. Reset swaps in a fresh
// one so requests already holding the old state finish against it.
type serverlessState struct {
	once    sync.Once
	err     error
	handler http.Handler
	cleanup func()
}

var (
	serverlessMu sync.Mutex
	serverless   = &serverlessState{}
)

func currentServerlessState() *serverlessState {
	serverlessMu.Lock()
	defer serverlessMu.Unlock()
	return serverless
}

// ServerlessHandler is the single-function entry point. Configuration comes
// from the environment and is loaded on the first request; if it is
// incomplete every request answers 500 and nothing else is reachable.
func ServerlessHandler(w http.ResponseWriter, r *http.Request) {
	s := currentServerlessState()
	s.once.Do(s.init)

	if s.err != nil || s.handler == nil {
		CORSInterceptor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, constants.ResponseMisconfigured)
		})).ServeHTTP(w, r)
		return
	}
	s.handler.ServeHTTP(w, r)
}

func (s *serverlessState) init() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load(ctx, "")
	if err != nil {
		s.err = err
		utils.Error("serverless init: %v", err)
		return
	}
	if err := utils.SetLevel(cfg.Log.Level); err != nil {
		utils.Warn("ignoring log level: %v", err)
	}
	deps, cleanup, err := InitializeDependencies(ctx, cfg)
	if err != nil {
		s.err = err
		utils.Error("serverless init: %v", err)
		return
	}
	router, err := NewRouter(cfg, deps.Cache, deps.KV)
	if err != nil {
		cleanup()
		s.err = err
		return
	}
	s.handler = router
	s.cleanup = cleanup
}

// ResetServerlessMux drops the cached router so the next request initializes
// again. An initialization already in flight completes before its
// dependencies are released. Used by tests.
func ResetServerlessMux() {
	serverlessMu.Lock()
	old := serverless
	serverless = &serverlessState{}
	serverlessMu.Unlock()

	// waits for a concurrent init; runs nothing if none ever started
	old.once.Do(func() {})
	if old.cleanup != nil {
		old.cleanup()
	}
}
