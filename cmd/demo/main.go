// Command demo creates a polling client, fetches two cities, prints them,
// then fetches again to show reuse of the cached reports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-sdk/internal/config"
	"github.com/kjstillabower/weather-sdk/internal/observability"
	"github.com/kjstillabower/weather-sdk/weather"
)

func main() {
	logger, err := observability.NewLogger("demo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = observability.Flush(context.Background(), logger) }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	client, err := weather.Create(cfg.WeatherAPIKey, true,
		weather.WithBaseURL(cfg.WeatherAPIURL),
		weather.WithHTTPClient(&http.Client{Timeout: cfg.WeatherAPITimeout}),
		weather.WithPollInterval(cfg.PollInterval),
		weather.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	defer weather.Delete(cfg.WeatherAPIKey)

	ctx := context.Background()
	for _, label := range []string{"", "Updated "} {
		for _, city := range cfg.DemoCities {
			report, err := client.GetWeather(ctx, city)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error fetching weather for %s: %v\n", city, err)
				continue
			}
			out, err := json.Marshal(report)
			if err != nil {
				fmt.Fprintf(os.Stderr, "encode %s: %v\n", city, err)
				continue
			}
			fmt.Printf("%s%s weather: %s\n", label, city, out)
		}
	}
}
