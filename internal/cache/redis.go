package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gtickets/config"
	"gtickets/internal/domain"
)

// RedisCache stores the last-fetched flight list per airline. A zero TTL keeps
// entries for the lifetime of the cache, which matches the append-only flight
// assumption.
//
// TODO: expose an explicit invalidation endpoint for administrators; today a
// stale entry can only be cleared by flushing redis or setting a TTL.
type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

// GetFlights returns the cached flight list for airline, or (nil, nil) on a
// cache miss.
func (c *RedisCache) GetFlights(ctx context.Context, airline string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey(airline)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, airline string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(airline), payload, c.flightsTTL).Err()
}

func flightsKey(airline string) string {
	return fmt.Sprintf("cache:flights:%s", airline)
}
