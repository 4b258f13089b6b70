package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-sdk/internal/cache"
	"github.com/kjstillabower/weather-sdk/internal/observability"
)

// Client serves weather reports for one API key from a bounded cache,
// fetching upstream when an entry is absent or older than the freshness window.
// Safe for concurrent use.
type Client struct {
	apiKey       string
	polling      bool
	pollInterval time.Duration
	fetcher      Fetcher
	logger       *zap.Logger
	now          func() time.Time

	// mu guards cache and is held across the upstream call.
	mu    sync.Mutex
	cache *cache.LRU[Report]

	// cached mirrors cache.Len() so it can be read without mu.
	cached atomic.Int32

	poller *poller
}

func newClient(apiKey string, polling bool, o options) *Client {
	return &Client{
		apiKey:       apiKey,
		polling:      polling,
		pollInterval: o.pollInterval,
		fetcher:      o.fetcher,
		logger:       o.logger,
		now:          time.Now,
		cache: cache.New[Report](func(string) {
			observability.CacheEvictionsTotal.Inc()
		}),
	}
}

// APIKey returns the credential the client was created with.
func (c *Client) APIKey() string { return c.apiKey }

// Polling reports whether background refresh was requested at creation.
func (c *Client) Polling() bool { return c.polling }

// Cities returns the currently cached city names, least recently used first.
// It waits for any fetch in progress.
func (c *Client) Cities() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Keys()
}

// CachedCount returns the number of cached cities without waiting for a
// fetch in progress. The value may lag a concurrent store.
func (c *Client) CachedCount() int {
	return int(c.cached.Load())
}

// GetWeather returns the report for city. A cached report younger than the
// freshness window is returned without a network call; otherwise the report
// is fetched, stored and returned. On failure the cache is left unchanged and
// the error is a *WeatherError.
func (c *Client) GetWeather(ctx context.Context, city string) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache.Get(city); ok && entry.IsValid(c.now()) {
		observability.CacheHitsTotal.Inc()
		c.logger.Debug("cache hit", zap.String("city", city))
		return entry.Payload, nil
	}

	observability.CacheMissesTotal.Inc()
	c.logger.Debug("cache miss, fetching upstream", zap.String("city", city))
	return c.fetchAndStoreLocked(ctx, city)
}

// fetchAndStoreLocked fetches city and stores the result. c.mu must be held.
func (c *Client) fetchAndStoreLocked(ctx context.Context, city string) (Report, error) {
	report, err := c.fetcher.Fetch(ctx, city, c.apiKey)
	if err != nil {
		var werr *WeatherError
		if !errors.As(err, &werr) {
			err = newNetworkError(err)
		}
		if ctx.Err() == nil {
			recordFetchError(err)
		}
		return Report{}, err
	}
	c.cache.Put(city, report, c.now())
	c.cached.Store(int32(c.cache.Len()))
	return report, nil
}

// refresh re-fetches every cached city, least recently used first so the
// access order survives the tick. A failure for one city is logged and does
// not stop the others. Cancellation ends the tick without logging.
func (c *Client) refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	observability.PollRunsTotal.Inc()
	cities := c.cache.Keys()
	failed := 0
	for _, city := range cities {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.fetchAndStoreLocked(ctx, city); err != nil {
			if ctx.Err() != nil {
				return
			}
			failed++
			observability.PollErrorsTotal.Inc()
			c.logger.Warn("polling failed for city", zap.String("city", city), zap.Error(err))
		}
	}
	c.logger.Debug("polling complete", zap.Int("cities", len(cities)), zap.Int("errors", failed))
}

func (c *Client) startPolling() error {
	p, err := startPoller(c.pollInterval, c.refresh)
	if err != nil {
		return err
	}
	c.poller = p
	return nil
}

// close stops background refresh. It does not wait for a running fetch.
func (c *Client) close() {
	if c.poller != nil {
		c.poller.stop()
	}
}
