package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/betterbuy/backend/internal/domain"
)

const ratesCacheKey = "rates:usd"

// RateCacheConfig holds configuration for the exchange-rate cache
type RateCacheConfig struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	// RetryBackoff is how long a failed refresh suppresses further attempts
	RetryBackoff time.Duration
	// Fallback is served when neither a fetched nor a stored table exists
	Fallback domain.RateTable
}

// RateCache memoizes the USD rate table with a freshness TTL.
// Concurrent refreshes collapse into one fetch. A failed refresh keeps the
// last good table, or the static fallback, so reads never fail.
type RateCache struct {
	source   domain.RateSource
	store    domain.CacheRepository
	metrics  domain.MetricsRecorder
	ttl      time.Duration
	timeout  time.Duration
	backoff  time.Duration
	fallback domain.RateTable
	now      func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	current  *domain.ExchangeRateTable
	failedAt time.Time
}

// NewRateCache creates a rate cache. store may be nil.
func NewRateCache(
	source domain.RateSource,
	store domain.CacheRepository,
	metrics domain.MetricsRecorder,
	config RateCacheConfig,
) *RateCache {
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 10 * time.Second
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Minute
	}
	if config.RetryBackoff > config.TTL {
		config.RetryBackoff = config.TTL
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}

	return &RateCache{
		source:   source,
		store:    store,
		metrics:  metrics,
		ttl:      config.TTL,
		timeout:  config.FetchTimeout,
		backoff:  config.RetryBackoff,
		fallback: config.Fallback.Clone(),
		now:      time.Now,
	}
}

// SetClock replaces the cache's time source
func (c *RateCache) SetClock(now func() time.Time) {
	c.now = now
}

// GetRates returns the current rate table. The result must not be modified.
func (c *RateCache) GetRates(ctx context.Context) domain.RateTable {
	return c.Table(ctx).Rates
}

// Table returns the current table with its capture time and source
func (c *RateCache) Table(ctx context.Context) *domain.ExchangeRateTable {
	now := c.now()

	c.mu.RLock()
	current, failedAt := c.current, c.failedAt
	c.mu.RUnlock()

	if current != nil && current.Age(now) < c.ttl {
		return current
	}
	// A recent failure serves the retained table without touching the store
	if !failedAt.IsZero() && now.Sub(failedAt) < c.backoff {
		return c.retained(current)
	}

	if stored := c.adoptStored(ctx); stored != nil && stored.Age(now) < c.ttl {
		return stored
	}

	return c.Refresh(ctx, now)
}

// Refresh fetches a new table regardless of age. On failure the retained
// table (or the fallback) is returned.
func (c *RateCache) Refresh(ctx context.Context, now time.Time) *domain.ExchangeRateTable {
	result, _, _ := c.group.Do(ratesCacheKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		table, err := c.source.FetchRates(fetchCtx)
		if err != nil || table == nil || len(table.Rates) == 0 {
			log.Warn().Err(err).Str("component", "rates").Msg("rate refresh failed, keeping previous table")

			c.mu.Lock()
			c.failedAt = now
			current := c.current
			c.mu.Unlock()

			if current == nil {
				c.metrics.RateRefresh("fallback")
			} else {
				c.metrics.RateRefresh("failure")
			}
			return c.retained(current), nil
		}

		table.FetchedAt = now
		c.mu.Lock()
		c.current = table
		c.failedAt = time.Time{}
		c.mu.Unlock()

		c.persist(ctx, table)
		c.metrics.RateRefresh("success")
		log.Info().Str("component", "rates").Int("currencies", len(table.Rates)).Msg("exchange rates refreshed")

		return table, nil
	})

	return result.(*domain.ExchangeRateTable)
}

// adoptStored loads the persisted table and keeps it as the current one
// when it is newer, stale or not, so a failed refresh still serves it.
// It returns the current table after adoption.
func (c *RateCache) adoptStored(ctx context.Context) *domain.ExchangeRateTable {
	stored := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if stored != nil && (c.current == nil || stored.FetchedAt.After(c.current.FetchedAt)) {
		c.current = stored
	}
	return c.current
}

func (c *RateCache) retained(current *domain.ExchangeRateTable) *domain.ExchangeRateTable {
	if current != nil {
		return current
	}
	return &domain.ExchangeRateTable{
		Base:   domain.CurrencyUSD,
		Rates:  c.fallback,
		Source: "fallback",
	}
}

func (c *RateCache) load(ctx context.Context) *domain.ExchangeRateTable {
	if c.store == nil {
		return nil
	}

	raw, err := c.store.Get(ctx, ratesCacheKey)
	if err != nil {
		return nil
	}
	encoded, ok := raw.(string)
	if !ok {
		return nil
	}

	var table domain.ExchangeRateTable
	if err := json.Unmarshal([]byte(encoded), &table); err != nil || len(table.Rates) == 0 {
		return nil
	}
	table.Source = "store"
	return &table
}

func (c *RateCache) persist(ctx context.Context, table *domain.ExchangeRateTable) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, ratesCacheKey, string(data), 0); err != nil {
		log.Warn().Err(err).Str("component", "rates").Msg("failed to persist rate table")
	}
}
