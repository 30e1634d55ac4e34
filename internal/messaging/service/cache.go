package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hackdesk_backend/internal/events"
	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/platform/logger"
)

const countsCacheKey = "messaging:recipient_counts"

// countsCache caches recipient counts in Redis. Counts change only on
// import, so the cache is short-lived and invalidated by the
// teams.imported event.
type countsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func newCountsCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *countsCache {
	return &countsCache{client: client, ttl: ttl, log: log}
}

func (c *countsCache) get(ctx context.Context) (repository.RecipientCounts, bool) {
	raw, err := c.client.Get(ctx, countsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("recipient count cache read failed", "error", err)
		}
		return repository.RecipientCounts{}, false
	}

	var counts repository.RecipientCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return repository.RecipientCounts{}, false
	}
	return counts, true
}

func (c *countsCache) set(ctx context.Context, counts repository.RecipientCounts) {
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, countsCacheKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("recipient count cache write failed", "error", err)
	}
}

func (c *countsCache) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, countsCacheKey).Err(); err != nil {
		c.log.Warn("recipient count cache invalidation failed", "error", err)
	}
}

// HandleTeamsImported drops the cached recipient counts after an import so
// the next read reflects the reconciled dataset.
func (s *Service) HandleTeamsImported(ctx context.Context, event events.Event) error {
	if s.cache == nil {
		return nil
	}
	if _, ok := event.(events.TeamsImported); !ok {
		return nil
	}
	s.cache.invalidate(ctx)
	return nil
}
