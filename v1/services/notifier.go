package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/nurpratapkarki/realEstateWeb/pkg/monitoring"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
)

// Cache keys of the derived listing views
const (
	CacheKeyFeatured = "catalog:featured"
	CacheKeyRecent   = "catalog:recent"
)

// ListingCache stores derived listing views. pkg/redis.RedisClient implements it.
type ListingCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher appends change events to a stream. pkg/redis.RedisClient implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, stream string, data map[string]interface{}) (string, error)
}

// NoopCache always misses
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, string, interface{}) (bool, error) { return false, nil }

func (NoopCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, string, map[string]interface{}) (string, error) {
	return "", nil
}

// ChangeNotifier keeps the listing cache coherent with catalog mutations and
// announces every mutation on the change stream. Its failures are logged and
// never returned to callers.
type ChangeNotifier struct {
	cache     ListingCache
	publisher EventPublisher
	stream    string
	ttl       time.Duration
}

// NewChangeNotifier creates a notifier. Nil collaborators fall back to no-ops.
func NewChangeNotifier(cache ListingCache, publisher EventPublisher, stream string, ttl time.Duration) *ChangeNotifier {
	if cache == nil {
		cache = NoopCache{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if stream == "" {
		stream = "catalog-events"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChangeNotifier{cache: cache, publisher: publisher, stream: stream, ttl: ttl}
}

// cachedProperties serves key from the cache, loading and storing it on a miss
func (n *ChangeNotifier) cachedProperties(ctx context.Context, key string, load func() ([]models.PropertyResponse, error)) ([]models.PropertyResponse, error) {
	var cached []models.PropertyResponse
	hit, err := n.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.Warn("Listing cache read failed", "key", key, "error", err)
	}
	monitoring.RecordCacheEvent(ctx, key, hit)
	if hit {
		return cached, nil
	}

	results, err := load()
	if err != nil {
		return nil, err
	}
	if err := n.cache.SetJSON(ctx, key, results, n.ttl); err != nil {
		slog.Warn("Listing cache write failed", "key", key, "error", err)
	}
	return results, nil
}

// changed records a successful mutation of entity id
func (n *ChangeNotifier) changed(ctx context.Context, entity, action string, id uint, actor *models.Identity) {
	monitoring.RecordBusinessEvent(ctx, entity+"."+action, true)

	if err := n.cache.Delete(ctx, CacheKeyFeatured, CacheKeyRecent); err != nil {
		slog.Warn("Listing cache invalidation failed", "entity", entity, "id", id, "error", err)
	}

	event := map[string]interface{}{
		"entity":    entity,
		"action":    action,
		"id":        strconv.FormatUint(uint64(id), 10),
		"actor":     strconv.FormatUint(uint64(actorID(actor)), 10),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := n.publisher.PublishEvent(ctx, n.stream, event); err != nil {
		slog.Warn("Failed to publish change event", "entity", entity, "action", action, "id", id, "error", err)
	}
}
