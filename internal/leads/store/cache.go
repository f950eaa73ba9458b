package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/metrics"
	"lead-crm/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// ListCacheKey holds the JSON-encoded full lead list.
	ListCacheKey = "leads:list"
	// GenerationKey is bumped on every insert.
	GenerationKey = "leads:list:gen"
)

// setIfGenerationScript writes KEYS[1] only while KEYS[2] still equals ARGV[1].
// ARGV[3] is the TTL in milliseconds, 0 for none.
const setIfGenerationScript = `
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// CachedStore serves List from Redis and drops the cached list after every
// insert. Redis failures are logged and fall through to the wrapped store.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "lead-cache"}),
	}
}

func (c *CachedStore) List(ctx context.Context) ([]models.Lead, error) {
	val, err := c.redis.Get(ctx, ListCacheKey).Result()
	switch {
	case err == nil:
		var leads []models.Lead
		if jsonErr := json.Unmarshal([]byte(val), &leads); jsonErr == nil {
			metrics.LeadCacheRequests.WithLabelValues("hit").Inc()
			return leads, nil
		}
		c.logger.Warn("discarding undecodable cached lead list", nil)
		metrics.LeadCacheRequests.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.LeadCacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.LeadCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("lead cache read failed", map[string]interface{}{"error": err.Error()})
	}

	// Read before the database so an insert landing during the query is detected.
	gen, genErr := c.generation(ctx)
	if genErr != nil {
		c.logger.Warn("lead cache generation read failed", map[string]interface{}{"error": genErr.Error()})
	}

	leads, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return leads, nil
	}

	data, err := json.Marshal(leads)
	if err != nil {
		c.logger.Warn("failed to encode lead list for cache", map[string]interface{}{"error": err.Error()})
		return leads, nil
	}
	stored, err := c.redis.Eval(ctx, setIfGenerationScript,
		[]string{ListCacheKey, GenerationKey}, gen, data, c.ttl.Milliseconds()).Int()
	switch {
	case err != nil:
		c.logger.Warn("lead cache write failed", map[string]interface{}{"error": err.Error()})
	case stored == 0:
		c.logger.Debug("lead list changed while loading, not cached", map[string]interface{}{"generation": gen})
	}

	return leads, nil
}

func (c *CachedStore) generation(ctx context.Context) (string, error) {
	gen, err := c.redis.Get(ctx, GenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *CachedStore) Insert(ctx context.Context, lead *models.Lead) error {
	if err := c.next.Insert(ctx, lead); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

func (c *CachedStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.next.ExistsByEmail(ctx, email)
}

// Invalidate bumps the list generation and drops the cached list. Loads that
// started under an older generation will not write their result back.
func (c *CachedStore) Invalidate(ctx context.Context) {
	if err := c.redis.Incr(ctx, GenerationKey).Err(); err != nil {
		c.logger.Warn("lead cache generation bump failed", map[string]interface{}{"error": err.Error()})
	}
	if err := c.redis.Del(ctx, ListCacheKey).Err(); err != nil {
		c.logger.Warn("lead cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
