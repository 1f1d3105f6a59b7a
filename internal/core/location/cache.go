// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/taibuivan/eventhub/internal/platform/constants"
	"github.com/taibuivan/eventhub/internal/platform/metrics"
)

// CountryCache holds resolved countries keyed by ISO alpha-2 code.
//
// Entries expire after the cache's TTL and can be dropped explicitly with
// Invalidate. Implementations never fail: a broken tier behaves as a miss.
type CountryCache interface {
	Get(ctx context.Context, code string) (*Country, bool)
	Set(ctx context.Context, country *Country)
	Invalidate(ctx context.Context, code string)
}

// # Memory Tier

// MemoryCountryCache is the in-process tier backed by ristretto.
type MemoryCountryCache struct {
	cache *ristretto.Cache[string, *Country]
	ttl   time.Duration
}

// NewMemoryCountryCache creates an in-process cache with the given TTL.
func NewMemoryCountryCache(ttl time.Duration) (*MemoryCountryCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *Country]{
		NumCounters: 4096,
		MaxCost:     1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCountryCache{cache: cache, ttl: ttl}, nil
}

func (memory *MemoryCountryCache) Get(_ context.Context, code string) (*Country, bool) {
	country, ok := memory.cache.Get(code)
	if ok {
		metrics.CountryCacheHits.WithLabelValues("memory").Inc()
	}
	return country, ok
}

func (memory *MemoryCountryCache) Set(_ context.Context, country *Country) {
	memory.cache.SetWithTTL(country.Code, country, 1, memory.ttl)
	memory.cache.Wait()
}

func (memory *MemoryCountryCache) Invalidate(_ context.Context, code string) {
	memory.cache.Del(code)
}

// Close stops ristretto's background goroutines.
func (memory *MemoryCountryCache) Close() {
	memory.cache.Close()
}

// # Redis Tier

const redisBreakerName = "country-cache-redis"

// RedisCountryCache is the shared tier. Calls go through a circuit breaker so a
// struggling Redis is skipped instead of slowing every ingestion down.
type RedisCountryCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[*Country]
	logger  *slog.Logger
}

// NewRedisCountryCache creates the Redis tier.
func NewRedisCountryCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCountryCache {
	metrics.CacheBreakerState.WithLabelValues(redisBreakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*Country](gobreaker.Settings{
		Name:        redisBreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache_breaker_state_changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.CacheBreakerState.WithLabelValues(name).Set(breakerGauge(to))
		},
	})

	return &RedisCountryCache{client: client, ttl: ttl, breaker: breaker, logger: logger}
}

func breakerGauge(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func redisKey(code string) string {
	return constants.RedisPrefixCountry + code
}

func (cache *RedisCountryCache) Get(ctx context.Context, code string) (*Country, bool) {
	country, err := cache.breaker.Execute(func() (*Country, error) {
		payload, err := cache.client.Get(ctx, redisKey(code)).Bytes()
		if err != nil {
			return nil, err
		}
		country := &Country{}
		if err := json.Unmarshal(payload, country); err != nil {
			return nil, err
		}
		return country, nil
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, gobreaker.ErrOpenState) {
			cache.logger.DebugContext(ctx, "country_cache_get_failed", slog.String("code", code), slog.Any("error", err))
		}
		return nil, false
	}

	metrics.CountryCacheHits.WithLabelValues("redis").Inc()
	return country, true
}

func (cache *RedisCountryCache) Set(ctx context.Context, country *Country) {
	payload, err := json.Marshal(country)
	if err != nil {
		return
	}
	_, err = cache.breaker.Execute(func() (*Country, error) {
		return nil, cache.client.Set(ctx, redisKey(country.Code), payload, cache.ttl).Err()
	})
	if err != nil && !errors.Is(err, gobreaker.ErrOpenState) {
		cache.logger.DebugContext(ctx, "country_cache_set_failed", slog.String("code", country.Code), slog.Any("error", err))
	}
}

func (cache *RedisCountryCache) Invalidate(ctx context.Context, code string) {
	// Invalidation bypasses the breaker: a stale shared entry is worse than a slow call
	if err := cache.client.Del(ctx, redisKey(code)).Err(); err != nil {
		cache.logger.WarnContext(ctx, "country_cache_invalidate_failed", slog.String("code", code), slog.Any("error", err))
	}
}

// State exposes the breaker state.
func (cache *RedisCountryCache) State() gobreaker.State {
	return cache.breaker.State()
}

// Check reports the tier as unhealthy while the breaker is open, and pings
// Redis otherwise. Readiness probes call it.
func (cache *RedisCountryCache) Check(ctx context.Context) error {
	if state := cache.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("location: %s breaker %s", redisBreakerName, state)
	}
	if err := cache.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("location: ping country cache: %w", err)
	}
	return nil
}

// # Tiered Cache

// TieredCountryCache checks tiers in order and back-fills faster tiers on a hit.
type TieredCountryCache struct {
	tiers []CountryCache
}

// NewTieredCountryCache chains tiers, fastest first.
func NewTieredCountryCache(tiers ...CountryCache) *TieredCountryCache {
	return &TieredCountryCache{tiers: tiers}
}

func (tiered *TieredCountryCache) Get(ctx context.Context, code string) (*Country, bool) {
	for index, tier := range tiered.tiers {
		if country, ok := tier.Get(ctx, code); ok {
			for _, faster := range tiered.tiers[:index] {
				faster.Set(ctx, country)
			}
			return country, true
		}
	}
	metrics.CountryCacheMisses.Inc()
	return nil, false
}

func (tiered *TieredCountryCache) Set(ctx context.Context, country *Country) {
	for _, tier := range tiered.tiers {
		tier.Set(ctx, country)
	}
}

func (tiered *TieredCountryCache) Invalidate(ctx context.Context, code string) {
	for _, tier := range tiered.tiers {
		tier.Invalidate(ctx, code)
	}
}
