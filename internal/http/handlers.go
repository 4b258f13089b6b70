// Package http exposes a weather client over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-sdk/weather"
)

// maxCityLength bounds the {city} path segment in runes.
const maxCityLength = 100

// WeatherGetter is the subset of *weather.Client the handlers need.
type WeatherGetter interface {
	GetWeather(ctx context.Context, city string) (weather.Report, error)
	CachedCount() int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather      WeatherGetter
	logger       *zap.Logger
	shuttingDown atomic.Bool
}

func NewHandler(w WeatherGetter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{weather: w, logger: logger}
}

// SetShuttingDown makes /health report 503 so load balancers drain the instance.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

// GetWeather handles GET /weather/{city}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, err := validateCity(mux.Vars(r)["city"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		return
	}

	report, err := h.weather.GetWeather(r.Context(), city)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if h.shuttingDown.Load() {
		status, code = "shutting-down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":       status,
		"service":      "weather-sdk",
		"cachedCities": h.weather.CachedCount(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

var (
	errCityEmpty        = errors.New("city is required")
	errCityTooLong      = errors.New("city too long")
	errCityInvalidChars = errors.New("city contains invalid characters")
)

// validateCity trims input and allows letters, digits, space and , - . '
// Case is preserved; the client keys its cache by the exact name.
func validateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", errCityEmpty
	}
	if len(r) > maxCityLength {
		return "", errCityTooLong
	}
	for _, c := range r {
		if unicode.IsLetter(c) || unicode.IsNumber(c) {
			continue
		}
		switch c {
		case ' ', ',', '-', '.', '\'':
			continue
		}
		return "", errCityInvalidChars
	}
	return s, nil
}

// writeWeatherError maps a client error to a status and error code.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusBadGateway, "UPSTREAM_ERROR"
	var werr *weather.WeatherError
	switch {
	case errors.As(err, &werr) && errors.Is(err, weather.ErrAPI) && werr.StatusCode == http.StatusNotFound:
		status, code = http.StatusNotFound, "CITY_NOT_FOUND"
	case errors.As(err, &werr) && errors.Is(err, weather.ErrAPI) && werr.StatusCode == http.StatusUnauthorized:
		code = "UPSTREAM_AUTH"
	case errors.Is(err, weather.ErrNetwork):
		status, code = http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	}
	writeError(w, r, status, code, err.Error())
	loggerFromRequest(r).Debug("weather lookup failed", zap.Int("status", status), zap.Error(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error body with the request's correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r.Context()),
		},
	})
}
