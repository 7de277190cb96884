package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	resultKeyPrefix     = "atk_reorder:"
	generationKey       = resultKeyPrefix + "generation"
	entryKeyPrefix      = resultKeyPrefix + "v"
	analyticsKey        = "analytics"
	recommendationsKey  = "recommendations"
	summaryKey          = "summary"
	resultScanBatchSize = 100
)

// ResultCache holds FetchLatest reads between runs. Entries are keyed by a
// generation that every completed run bumps. Callers read the generation
// before querying the store and write back under that same generation, so a
// fill that started before an invalidation can never be served after it.
type ResultCache interface {
	Generation(ctx context.Context) (int64, error)
	GetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.AnalyticsView, bool, error)
	SetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.AnalyticsView) error
	GetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.RecommendationView, bool, error)
	SetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.RecommendationView) error
	GetSummary(ctx context.Context, gen int64) (domain.ResultSummary, bool, error)
	SetSummary(ctx context.Context, gen int64, summary domain.ResultSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache returns a redis-backed cache when caching is enabled and a
// client is supplied, a no-op cache otherwise.
func NewResultCache(cfg config.CacheConfig, client *redis.Client) ResultCache {
	if !cfg.Enabled || client == nil {
		return &noopResultCache{}
	}

	return &redisResultCache{
		client: client,
		ttl:    resultTTL(cfg),
	}
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (c *redisResultCache) GetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.AnalyticsView, bool, error) {
	var rows []domain.AnalyticsView
	ok, err := c.get(ctx, buildResultKey(gen, analyticsKey, filter), &rows)
	return rows, ok, err
}

func (c *redisResultCache) SetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.AnalyticsView) error {
	return c.set(ctx, buildResultKey(gen, analyticsKey, filter), rows)
}

func (c *redisResultCache) GetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.RecommendationView, bool, error) {
	var rows []domain.RecommendationView
	ok, err := c.get(ctx, buildResultKey(gen, recommendationsKey, filter), &rows)
	return rows, ok, err
}

func (c *redisResultCache) SetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.RecommendationView) error {
	return c.set(ctx, buildResultKey(gen, recommendationsKey, filter), rows)
}

func (c *redisResultCache) GetSummary(ctx context.Context, gen int64) (domain.ResultSummary, bool, error) {
	var summary domain.ResultSummary
	ok, err := c.get(ctx, generationPrefix(gen)+summaryKey, &summary)
	return summary, ok, err
}

func (c *redisResultCache) SetSummary(ctx context.Context, gen int64, summary domain.ResultSummary) error {
	return c.set(ctx, generationPrefix(gen)+summaryKey, summary)
}

// InvalidateAll bumps the generation first, then drops entries of every
// generation. A late write under an old generation is left to expire by TTL.
func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return fmt.Errorf("redis bump generation failed: %w", err)
	}

	removed, err := unlinkPrefix(ctx, c.client, entryKeyPrefix, resultScanBatchSize)
	if err != nil {
		return err
	}
	log.Debug().Int64("generation", gen).Int("keys", removed).Msg("reorder result cache invalidated")
	return nil
}

func (c *redisResultCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *redisResultCache) set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopResultCache) Generation(ctx context.Context) (int64, error) {
	return 0, nil
}

func (n *noopResultCache) GetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.AnalyticsView, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetAnalytics(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.AnalyticsView) error {
	return nil
}

func (n *noopResultCache) GetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter) ([]domain.RecommendationView, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetRecommendations(ctx context.Context, gen int64, filter domain.ResultFilter, rows []domain.RecommendationView) error {
	return nil
}

func (n *noopResultCache) GetSummary(ctx context.Context, gen int64) (domain.ResultSummary, bool, error) {
	return domain.ResultSummary{}, false, nil
}

func (n *noopResultCache) SetSummary(ctx context.Context, gen int64, summary domain.ResultSummary) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func generationPrefix(gen int64) string {
	return entryKeyPrefix + strconv.FormatInt(gen, 10) + ":"
}

func buildResultKey(gen int64, kind string, filter domain.ResultFilter) string {
	return fmt.Sprintf("%s%s:%s", generationPrefix(gen), kind, resultFilterKey(filter))
}
// resultFilterKey is readable rather than hashed; filters are short.
func resultFilterKey(filter domain.ResultFilter) string {
	parts := []string{}

	if filter.Status != "" {
		parts = append(parts, "status="+strings.ToLower(string(filter.Status)))
	}
	if filter.Priority != "" {
		parts = append(parts, "priority="+strings.ToLower(string(filter.Priority)))
	}
	if filter.Limit > 0 {
		parts = append(parts, "limit="+strconv.Itoa(filter.Limit))
	}

	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "|")
}
