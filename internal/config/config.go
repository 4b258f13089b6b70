// Package config loads settings for the demo and service binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds binary configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	PollingEnabled bool
	PollInterval   time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	DemoCities []string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Polling struct {
		Enabled  *bool  `yaml:"enabled"`
		Interval string `yaml:"interval"`
	} `yaml:"polling"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Demo struct {
		Cities []string `yaml:"cities"`
	} `yaml:"demo"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working
// directory. A missing file is not an error; defaults apply. The API key comes
// from WEATHER_API_KEY (a .env file in the working directory is honored) or
// config/secrets.yaml.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
		if os.Getenv("ENV_NAME") != "" {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.ServerPort = p
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey, err = loadAPIKey(cwd)
	if err != nil {
		return nil, err
	}

	cfg.WeatherAPIURL = strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = fc.WeatherAPI.URL
	}
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.PollingEnabled = true
	if fc.Polling.Enabled != nil {
		cfg.PollingEnabled = *fc.Polling.Enabled
	}
	cfg.PollInterval = parseDurationOrZero(fc.Polling.Interval, 10*time.Minute)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 15*time.Second)

	cfg.DemoCities = fc.Demo.Cities
	if len(cfg.DemoCities) == 0 {
		cfg.DemoCities = []string{"Moscow", "Paris"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadAPIKey(cwd string) (string, error) {
	if key := strings.TrimSpace(os.Getenv("WEATHER_API_KEY")); key != "" {
		return key, nil
	}
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read secrets file: %w", err)
		}
		return "", fmt.Errorf("WEATHER_API_KEY required (set env, .env or config/secrets.yaml weather_api_key)")
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	if strings.TrimSpace(sec.WeatherAPIKey) == "" {
		return "", fmt.Errorf("WEATHER_API_KEY required (set env, .env or config/secrets.yaml weather_api_key)")
	}
	return strings.TrimSpace(sec.WeatherAPIKey), nil
}

// parseDuration parses s and returns defaultVal if parsing fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses s, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is for validate to reject.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}
	return nil
}
