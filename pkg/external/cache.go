package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmgx-twin-server/internal/domain"
)

// CacheConfig represents Redis cache configuration.
type CacheConfig struct {
	RedisURL    string        `json:"redis_url"`
	DefaultTTL  time.Duration `json:"default_ttl"`
	MaxRetries  int           `json:"max_retries"`
	PoolSize    int           `json:"pool_size"`
	PoolTimeout time.Duration `json:"pool_timeout"`
}

// CacheClient wraps Redis with caching for explanation responses. Keys are
// derived from the assessment's derived labels only, never from genotypes, so
// identical phenotype/risk combinations share one entry across patients.
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewCacheClient creates a new cache client and verifies connectivity.
func NewCacheClient(config CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// cachedExplanation is the stored envelope for one narrative.
type cachedExplanation struct {
	Text      string    `json:"text"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetExplanation retrieves a cached narrative for an assessment.
func (c *CacheClient) GetExplanation(ctx context.Context, assessment *domain.DrugRiskAssessment) (string, bool, error) {
	key := explanationKey(assessment)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get explanation cache: %w", err)
	}

	var cached cachedExplanation
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Corrupted entry; drop it and treat as a miss.
		c.redis.Del(ctx, key)
		return "", false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return "", false, nil
	}

	return cached.Text, true, nil
}

// SetExplanation caches a narrative for an assessment.
func (c *CacheClient) SetExplanation(ctx context.Context, assessment *domain.DrugRiskAssessment, text string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := cachedExplanation{
		Text:      text,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal explanation cache entry: %w", err)
	}

	return c.redis.Set(ctx, explanationKey(assessment), data, ttl).Err()
}

// Ping checks whether the Redis connection is alive.
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *CacheClient) Close() error {
	return c.redis.Close()
}

// explanationKey builds a stable cache key from the assessment's derived
// labels. Genotype strings and variant lists deliberately never enter the key.
func explanationKey(a *domain.DrugRiskAssessment) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s", a.Drug, a.Gene, a.PhenotypeCode, a.RiskLabel, a.Recommendation)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("explain:%x", hash[:8])
}
