package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestCorrelationIDMiddleware_Generates(t *testing.T) {
	var seen string
	handler := CorrelationIDMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = correlationID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("correlation ID not set on context")
	}
	if got := w.Header().Get(correlationHeader); got != seen {
		t.Errorf("header = %q, want %q", got, seen)
	}
}

func TestCorrelationIDMiddleware_Reuses(t *testing.T) {
	var seen string
	handler := CorrelationIDMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = correlationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(correlationHeader, "abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "abc" {
		t.Errorf("correlation ID = %q, want abc", seen)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/weather/Moscow", "/weather/{city}"},
		{"/unknown/thing", "other"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := routeLabel(r); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather/x", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", w.Code)
	}
	if statusClass(w.Code) != "4xx" {
		t.Errorf("statusClass(%d) = %q, want 4xx", w.Code, statusClass(w.Code))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	router := mux.NewRouter()
	router.Use(RateLimitMiddleware(limiter))
	router.HandleFunc("/weather/{city}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/weather/Moscow", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/weather/Moscow", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.Code)
	}
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	calls := 0
	handler := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/weather/x", nil))
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	router := NewRouter(NewHandler(&mockWeather{}, nil), zap.NewNop(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", w.Code)
	}
}
