package weather

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/weather-sdk/internal/observability"
)

// ErrDuplicateInstance is returned by Create when a client for the API key is already registered.
var ErrDuplicateInstance = errors.New("client instance with this API key already exists")

// Fetch failure classes. Match with errors.Is; use errors.As with *WeatherError for details.
var (
	ErrNetwork      = errors.New("network error")
	ErrAPI          = errors.New("api error")
	ErrMissingField = errors.New("missing field")
)

// WeatherError is returned by GetWeather and Fetcher implementations. Kind is
// one of ErrNetwork, ErrAPI or ErrMissingField.
type WeatherError struct {
	Kind error

	// StatusCode and Reason are set for ErrAPI.
	StatusCode int
	Reason     string

	// Field is set for ErrMissingField.
	Field string

	Err error
}

func (e *WeatherError) Error() string {
	switch e.Kind {
	case ErrAPI:
		return fmt.Sprintf("API Error: %d – %s", e.StatusCode, e.Reason)
	case ErrNetwork:
		if e.Err == nil {
			return "Network Error"
		}
		return "Network Error: " + e.Err.Error()
	case ErrMissingField:
		return fmt.Sprintf("The field %q cannot be parsed", e.Field)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "weather error"
}

func (e *WeatherError) Is(target error) bool {
	return target == e.Kind
}

func (e *WeatherError) Unwrap() error {
	return e.Err
}

func newAPIError(statusCode int, reason string) *WeatherError {
	return &WeatherError{Kind: ErrAPI, StatusCode: statusCode, Reason: reason}
}

func newNetworkError(err error) *WeatherError {
	return &WeatherError{Kind: ErrNetwork, Err: err}
}

func newMissingFieldError(field string, err error) *WeatherError {
	return &WeatherError{Kind: ErrMissingField, Field: field, Err: err}
}

// errorCategory maps err to a stable label for weatherFetchErrorsTotal.
func errorCategory(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrAPI):
		return "api"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "unknown"
	}
}

func recordFetchError(err error) {
	observability.FetchErrorsTotal.WithLabelValues(errorCategory(err)).Inc()
}
