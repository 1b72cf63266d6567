package http

import (
	"context"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/event"
	"github.com/awantoch/promptgate/rulebook"
	"github.com/awantoch/promptgate/storage"
	"github.com/awantoch/promptgate/utils"
)

// Dependencies are the long-lived collaborators the router serves from.
type Dependencies struct {
	KV    storage.KV
	Bus   event.EventBus
	Cache *rulebook.Cache
}

// InitializeDependencies opens the KV store, event bus and rulebook cache
// described by cfg. The returned cleanup closes them in reverse order.
func InitializeDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	kv, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	bus, err := event.NewEventBusFromConfig(cfg.Event)
	if err != nil {
		utils.WarnCtx(ctx, "event bus unavailable, using in-memory fallback", "error", err)
		bus = event.NewWatermillInMemBus()
	}

	source, err := rulebook.NewSourceFromConfig(ctx, cfg, kv)
	if err != nil {
		bus.Close()
		kv.Close()
		return nil, nil, err
	}
	cache := rulebook.NewCache(source,
		rulebook.WithTTL(cfg.Rulebook.TTL()),
		rulebook.WithFetchTimeout(cfg.Rulebook.FetchTimeout()),
		rulebook.WithEventBus(bus),
	)

	cleanup := func() {
		if err := bus.Close(); err != nil {
			utils.Error("Failed to close event bus: %v", err)
		}
		if err := kv.Close(); err != nil {
			utils.Error("Failed to close kv store: %v", err)
		}
	}
	return &Dependencies{KV: kv, Bus: bus, Cache: cache}, cleanup, nil
}
