package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sap-address-assistant/internal/models"
)

const cacheKeyPrefix = "sap-assistant:extract:v2"

// ExtractionCache stores extractor results keyed by domain and query text.
// Only whitespace is normalized: entity values are case sensitive.
type ExtractionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewExtractionCache(client redis.Cmdable, ttl time.Duration) *ExtractionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ExtractionCache{client: client, ttl: ttl}
}

// Get returns the cached result, or ok=false on a miss.
func (c *ExtractionCache) Get(ctx context.Context, domain models.Domain, text string) (result models.ExtractionResult, ok bool, err error) {
	raw, err := c.client.Get(ctx, cacheKey(domain, text)).Result()
	if errors.Is(err, redis.Nil) {
		return models.ExtractionResult{}, false, nil
	}
	if err != nil {
		return models.ExtractionResult{}, false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return models.ExtractionResult{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return result, true, nil
}

// Set stores result for the configured TTL.
func (c *ExtractionCache) Set(ctx context.Context, domain models.Domain, text string, result models.ExtractionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(domain, text), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func cacheKey(domain models.Domain, text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, domain, hex.EncodeToString(sum[:]))
}
