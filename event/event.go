package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
)

// EventBus carries fire-and-forget notifications (rulebook refreshes,
// refresh failures) to whoever is listening.
type EventBus interface {
	Publish(topic string, payload any) error
	Subscribe(ctx context.Context, topic string, handler func(payload any)) error
	Close() error
}

// NewEventBusFromConfig returns an EventBus based on config. Supported:
// memory (default) and nats (streaming, requires url). Unknown drivers fail cleanly.
func NewEventBusFromConfig(cfg config.EventConfig) (EventBus, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", constants.EventDriverMemory:
		return NewWatermillInMemBus(), nil
	case constants.EventDriverNATS:
		if cfg.URL == "" {
			return nil, fmt.Errorf("NATS driver requires url")
		}
		clusterID := cfg.ClusterID
		if clusterID == "" {
			clusterID = constants.DefaultServiceName
		}
		clientID := cfg.ClientID
		if clientID == "" {
			// streaming client ids must be unique per connection
			clientID = constants.DefaultServiceName + "-" + uuid.NewString()[:8]
		}
		return NewWatermillNATSBus(clusterID, clientID, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %s", cfg.Driver)
	}
}
