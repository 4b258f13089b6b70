package weather

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often a polling client refreshes its cached cities.
const DefaultPollInterval = 600 * time.Second

type options struct {
	fetcher      Fetcher
	baseURL      string
	httpClient   *http.Client
	logger       *zap.Logger
	pollInterval time.Duration
}

// Option configures a Client at creation.
type Option func(*options)

// WithFetcher replaces the HTTP fetcher. WithBaseURL and WithHTTPClient are ignored when set.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithBaseURL points the default fetcher at another endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the *http.Client used by the default fetcher.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.fetcher == nil {
		o.fetcher = NewHTTPFetcher(o.baseURL, o.httpClient)
	}
	return o
}
