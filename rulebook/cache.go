package rulebook

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/event"
	"github.com/awantoch/promptgate/telemetry"
	"github.com/awantoch/promptgate/utils"
)

// CachedResource is the last successfully fetched rulebook. The zero value
// means nothing has been fetched yet.
type CachedResource struct {
	Content   string
	FetchedAt time.Time
}

// State describes the cache for diagnostics.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "empty"
	}
}

// RefreshedEvent is published after every successful fetch.
type RefreshedEvent struct {
	Source    string    `json:"source"`
	Bytes     int       `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RefreshFailedEvent is published after every failed fetch.
type RefreshFailedEvent struct {
	Source   string `json:"source"`
	Error    string `json:"error"`
	Fallback bool   `json:"fallback"`
}

const flightKey = "rulebook"

// Cache memoizes one rulebook for a fixed TTL. Concurrent misses share a
// single upstream fetch.
type Cache struct {
	source  Source
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	bus     event.EventBus

	mu       sync.RWMutex
	resource CachedResource

	flight singleflight.Group
}

type Option func(*Cache)

// WithTTL sets how long a fetched rulebook is served without refetching.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithFetchTimeout bounds each upstream fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEventBus publishes refresh outcomes to bus.
func WithEventBus(bus event.EventBus) Option {
	return func(c *Cache) {
		c.bus = bus
	}
}

func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		ttl:     time.Duration(constants.DefaultRulebookTTLMillis) * time.Millisecond,
		timeout: time.Duration(constants.DefaultRulebookTimeoutMillis) * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the rulebook, fetching it when the cached copy is missing or
// older than the TTL. If a fetch fails and an earlier copy exists, that copy
// is returned instead of the error.
func (c *Cache) Get(ctx context.Context) (string, error) {
	if content, ok := c.fresh(); ok {
		telemetry.ObserveRulebookLookup("hit")
		return content, nil
	}

	ch := c.flight.DoChan(flightKey, func() (any, error) {
		return c.refresh(ctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		// the fetch keeps running for the other waiters
		return "", ctx.Err()
	}
}

// Snapshot returns the cached resource without fetching.
func (c *Cache) Snapshot() CachedResource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resource
}

// State reports Empty, Fresh or Stale relative to the cache clock.
func (c *Cache) State() State {
	res := c.Snapshot()
	switch {
	case res.Content == "":
		return StateEmpty
	case c.now().Sub(res.FetchedAt) < c.ttl:
		return StateFresh
	default:
		return StateStale
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) fresh() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.resource.Content == "" || c.now().Sub(c.resource.FetchedAt) >= c.ttl {
		return "", false
	}
	return c.resource.Content, true
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	// a flight that finished just before this one started already refreshed
	if content, ok := c.fresh(); ok {
		telemetry.ObserveRulebookLookup("hit")
		return content, nil
	}
	telemetry.ObserveRulebookLookup("miss")

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	content, err := c.source.Fetch(fetchCtx)
	if err == nil && content == "" {
		err = ErrEmptyContent
	}
	if err != nil {
		return c.fallback(ctx, err, time.Since(start))
	}
	telemetry.ObserveRulebookFetch("ok", time.Since(start))

	fetchedAt := c.now()
	c.mu.Lock()
	c.resource = CachedResource{Content: content, FetchedAt: fetchedAt}
	c.mu.Unlock()

	utils.InfoCtx(ctx, "rulebook refreshed", "source", c.source.Name(), "bytes", len(content))
	c.publish(ctx, constants.TopicRulebookRefreshed, RefreshedEvent{
		Source:    c.source.Name(),
		Bytes:     len(content),
		FetchedAt: fetchedAt,
	})
	return content, nil
}

func (c *Cache) fallback(ctx context.Context, cause error, took time.Duration) (string, error) {
	outcome := "error"
	if errors.Is(cause, context.DeadlineExceeded) {
		outcome = "timeout"
	}
	telemetry.ObserveRulebookFetch(outcome, took)

	prev := c.Snapshot()
	c.publish(ctx, constants.TopicRulebookRefreshFailed, RefreshFailedEvent{
		Source:   c.source.Name(),
		Error:    cause.Error(),
		Fallback: prev.Content != "",
	})
	if prev.Content != "" {
		telemetry.ObserveRulebookLookup("stale_fallback")
		utils.WarnCtx(ctx, "rulebook refresh failed, serving previous copy",
			"source", c.source.Name(), "error", cause, "age", c.now().Sub(prev.FetchedAt))
		return prev.Content, nil
	}
	utils.ErrorCtx(ctx, "rulebook fetch failed", "source", c.source.Name(), "error", cause)
	return "", &UpstreamFetchError{Source: c.source.Name(), Cause: cause}
}

func (c *Cache) publish(ctx context.Context, topic string, payload any) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(topic, payload); err != nil {
		utils.WarnCtx(ctx, "publish failed", "topic", topic, "error", err)
	}
}
