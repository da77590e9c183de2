package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

// CachedProvider is a read-through Redis cache in front of another provider.
// Redis problems are logged and the request goes to the provider.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, client: client, ttl: ttl}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("weather:forecast:%.4f:%.4f", lat, lon)
}

func (c *CachedProvider) DailyForecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
	key := cacheKey(lat, lon)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.DailyForecast
		if err := json.Unmarshal(raw, &cached); err == nil {
			logger.Debug("Forecast cache hit", "key", key)
			return cached, nil
		}
		logger.Warn("Discarding unreadable cached forecast", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("Forecast cache lookup failed", "key", key, "error", err)
	}

	forecasts, err := c.next.DailyForecast(ctx, lat, lon)
	if err != nil || len(forecasts) == 0 {
		return forecasts, err
	}

	if body, err := json.Marshal(forecasts); err == nil {
		if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
			logger.Warn("Forecast cache store failed", "key", key, "error", err)
		}
	}
	return forecasts, nil
}
