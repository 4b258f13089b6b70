package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-sdk/internal/observability"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// TestPolling_RefreshesCachedCities verifies a polling client re-fetches
// cached cities on its interval without caller involvement.
func TestPolling_RefreshesCachedCities(t *testing.T) {
	f := newFakeFetcher()
	r := NewRegistry()
	c, err := r.Create("poll-key", true, WithFetcher(f), WithPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer r.Delete("poll-key")

	if !c.Polling() {
		t.Error("Polling() = false, want true")
	}
	if _, err := c.GetWeather(context.Background(), "Moscow"); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return f.count("Moscow") >= 3 }) {
		t.Fatalf("fetch count = %d, want background refreshes", f.count("Moscow"))
	}
}

// TestPolling_FirstRunImmediate verifies the first refresh tick happens at
// creation rather than one interval later.
func TestPolling_FirstRunImmediate(t *testing.T) {
	before := testutil.ToFloat64(observability.PollRunsTotal)

	r := NewRegistry()
	if _, err := r.Create("immediate-key", true, WithFetcher(newFakeFetcher()), WithPollInterval(time.Hour)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer r.Delete("immediate-key")

	if !waitFor(t, 2*time.Second, func() bool {
		return testutil.ToFloat64(observability.PollRunsTotal) > before
	}) {
		t.Error("no refresh tick observed after creation")
	}
}

// TestClient_Refresh_ContinuesPastFailure verifies one failing city does not
// stop the others and keeps its previous entry.
func TestClient_Refresh_ContinuesPastFailure(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()

	for _, city := range []string{"Bad", "Good", "Other"} {
		if _, err := c.GetWeather(ctx, city); err != nil {
			t.Fatalf("GetWeather(%s) error = %v", city, err)
		}
	}
	f.setFail("Bad", newAPIError(500, "Internal Server Error"))
	f.setTemp(280)

	c.refresh(ctx)

	for _, city := range []string{"Bad", "Good", "Other"} {
		if n := f.count(city); n != 2 {
			t.Errorf("%s fetch count = %d, want 2", city, n)
		}
	}
	c.mu.Lock()
	bad, okBad := c.cache.Get("Bad")
	good, okGood := c.cache.Get("Good")
	c.mu.Unlock()
	if !okBad || bad.Payload.Temperature.Temp != 267.39 {
		t.Errorf("Bad entry = %+v, %v; want previous payload kept", bad, okBad)
	}
	if !okGood || good.Payload.Temperature.Temp != 280 {
		t.Errorf("Good entry = %+v, %v; want refreshed payload", good, okGood)
	}
}

func TestClient_Refresh_StopsOnCancel(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	if _, err := c.GetWeather(context.Background(), "Moscow"); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.refresh(ctx)

	if n := f.count("Moscow"); n != 1 {
		t.Errorf("fetch count = %d after canceled refresh, want 1", n)
	}
}

// TestPolling_StopsAfterDelete verifies Delete ends background refresh.
func TestPolling_StopsAfterDelete(t *testing.T) {
	f := newFakeFetcher()
	r := NewRegistry()
	c, err := r.Create("stop-key", true, WithFetcher(f), WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := c.GetWeather(context.Background(), "Moscow"); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return f.count("Moscow") >= 2 }) {
		t.Fatal("polling never ran")
	}

	r.Delete("stop-key")
	time.Sleep(50 * time.Millisecond)
	settled := f.count("Moscow")
	time.Sleep(100 * time.Millisecond)
	if n := f.count("Moscow"); n != settled {
		t.Errorf("fetch count moved from %d to %d after Delete", settled, n)
	}

	// The deleted client still answers from its own cache.
	if _, err := c.GetWeather(context.Background(), "Moscow"); err != nil && !errors.Is(err, ErrNetwork) {
		t.Errorf("GetWeather() after Delete error = %v", err)
	}
}

func TestStartPoller_InvalidInterval(t *testing.T) {
	if _, err := startPoller(0, func(context.Context) {}); err == nil {
		t.Error("startPoller(0) error = nil, want error")
	}
}

// TestClient_Refresh_LogsFailures verifies per-city refresh failures are
// logged at warn level with the city name.
func TestClient_Refresh_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFakeFetcher()
	r := NewRegistry()
	c, err := r.Create("log-key", false, WithFetcher(f), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer r.Delete("log-key")

	if _, err := c.GetWeather(context.Background(), "Atlantis"); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	f.setFail("Atlantis", newAPIError(404, "Not Found"))
	c.refresh(context.Background())

	entries := logs.FilterMessage("polling failed for city").All()
	if len(entries) != 1 {
		t.Fatalf("warn entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["city"]; got != "Atlantis" {
		t.Errorf("city field = %v, want Atlantis", got)
	}
}

// TestClient_Refresh_PreservesAccessOrder verifies a refresh tick leaves the
// eviction order unchanged, so the next new city evicts the caller's least
// recently used city.
func TestClient_Refresh_PreservesAccessOrder(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := c.GetWeather(ctx, fmt.Sprintf("c%d", i)); err != nil {
			t.Fatalf("GetWeather() error = %v", err)
		}
	}
	before := c.Cities()

	c.refresh(ctx)

	after := c.Cities()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Cities() after refresh = %v, want %v", after, before)
		}
	}

	if _, err := c.GetWeather(ctx, "new"); err != nil {
		t.Fatalf("GetWeather(new) error = %v", err)
	}
	cached := make(map[string]bool)
	for _, city := range c.Cities() {
		cached[city] = true
	}
	if cached["c0"] {
		t.Error("c0 was least recently used and should have been evicted")
	}
	if !cached["c9"] {
		t.Error("c9 was most recently used and should still be cached")
	}
}

// TestClient_Refresh_CancelMidFetchIsQuiet verifies a tick cancelled during a
// fetch stops without warning or counting a fetch error.
func TestClient_Refresh_CancelMidFetchIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRegistry()
	c, err := r.Create("cancel-key", false, WithFetcher(newFakeFetcher()), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer r.Delete("cancel-key")

	for _, city := range []string{"Moscow", "Paris"} {
		if _, err := c.GetWeather(context.Background(), city); err != nil {
			t.Fatalf("GetWeather(%s) error = %v", city, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	c.fetcher = FetcherFunc(func(ctx context.Context, city, apiKey string) (Report, error) {
		calls++
		cancel()
		return Report{}, ctx.Err()
	})
	errsBefore := testutil.ToFloat64(observability.FetchErrorsTotal.WithLabelValues("network"))

	c.refresh(ctx)

	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
	if n := logs.FilterMessage("polling failed for city").Len(); n != 0 {
		t.Errorf("warn entries = %d, want 0", n)
	}
	if got := testutil.ToFloat64(observability.FetchErrorsTotal.WithLabelValues("network")); got != errsBefore {
		t.Errorf("network fetch errors = %v, want %v", got, errsBefore)
	}
	if len(c.Cities()) != 2 {
		t.Errorf("Cities() = %v, want both cities kept", c.Cities())
	}
}
