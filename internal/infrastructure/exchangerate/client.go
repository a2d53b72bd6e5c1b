package exchangerate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/betterbuy/backend/internal/domain"
)

// ClientOptions tunes the exchange-rate client
type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	RetryCount        int
	RetryWait         time.Duration
}

// Client fetches USD-based exchange rates from a JSON endpoint
type Client struct {
	resty       *resty.Client
	url         string
	rateLimiter *rate.Limiter
	now         func() time.Time
}

// NewClient creates a new exchange-rate client for the endpoint at url
func NewClient(url string, opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	r := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(4*opts.RetryWait).
		SetHeader("User-Agent", "BetterBuy/1.0").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= http.StatusInternalServerError)
		})

	return &Client{
		resty:       r,
		url:         url,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		now:         time.Now,
	}
}

// FetchRates downloads the current rate table.
// All failures wrap domain.ErrRateSourceFailure.
func (c *Client) FetchRates(ctx context.Context) (*domain.ExchangeRateTable, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRateSourceFailure, err)
	}

	resp, err := c.resty.R().SetContext(ctx).Get(c.url)
	if err != nil {
		log.Warn().Err(err).Str("component", "exchangerate").Msg("request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrRateSourceFailure, err)
	}

	if resp.StatusCode() != http.StatusOK {
		log.Warn().
			Str("component", "exchangerate").
			Int("status", resp.StatusCode()).
			Msg("unexpected status from rate source")
		return nil, fmt.Errorf("%w: status %d", domain.ErrRateSourceFailure, resp.StatusCode())
	}

	rates, err := ParseRates(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateSourceFailure, err)
	}

	log.Debug().Str("component", "exchangerate").Int("currencies", len(rates)).Msg("fetched rates")

	return &domain.ExchangeRateTable{
		Base:      domain.CurrencyUSD,
		Rates:     rates,
		FetchedAt: c.now(),
		Source:    "network",
	}, nil
}
