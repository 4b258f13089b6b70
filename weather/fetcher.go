package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-sdk/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Fetcher performs one upstream lookup for city using apiKey. Failures are
// returned as *WeatherError.
type Fetcher interface {
	Fetch(ctx context.Context, city, apiKey string) (Report, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, city, apiKey string) (Report, error)

func (f FetcherFunc) Fetch(ctx context.Context, city, apiKey string) (Report, error) {
	return f(ctx, city, apiKey)
}

// HTTPFetcher calls the OpenWeatherMap API over HTTP.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher returns a fetcher for baseURL (DefaultBaseURL if empty).
// A nil client gets a default with a 10 second timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{baseURL: baseURL, client: client}
}

// Fetch issues GET {baseURL}?q={city}&appid={apiKey} and normalizes the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, city, apiKey string) (Report, error) {
	start := time.Now()

	req, err := f.buildRequest(ctx, city, apiKey)
	if err != nil {
		return Report{}, newNetworkError(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return Report{}, newNetworkError(err)
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Report{}, newAPIError(resp.StatusCode, reasonPhrase(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, newNetworkError(fmt.Errorf("read response body: %w", err))
	}
	return ParseReport(body)
}

func (f *HTTPFetcher) buildRequest(ctx context.Context, city, apiKey string) (*http.Request, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := u.Query()
	params.Set("q", city)
	params.Set("appid", apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// reasonPhrase extracts the reason from a status line like "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
