package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

var validate = validator.New()

type AppConfig struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Outbound HTTP.
	HTTPTimeout    time.Duration `validate:"gt=0"`
	HTTPMaxRetries int           `validate:"gte=0,lte=10"`

	// Cache.
	CacheDuration      time.Duration `validate:"gt=0"`
	CacheBackend       string        `validate:"oneof=memory redis"`
	CacheMaxEntries    int           `validate:"gte=0"`
	CachePurgeInterval time.Duration `validate:"gt=0"`
	RedisAddr          string        `validate:"required_if=CacheBackend redis"`

	// Sources.
	CountryBaseURL    string `validate:"required,url"`
	WeatherBaseURL    string `validate:"required,url"`
	OpenWeatherAPIKey string
	NewsBaseURL       string `validate:"required,url"`
	NewsAPIKey        string
	NewsProvider      string `validate:"oneof=newsapi rss"`
	NewsDateFormat    string `validate:"required"`
	NewsPageSize      int    `validate:"gt=0"`

	JWT JWTConfig
}

// JWTConfig holds the token issuing settings. An empty Secret disables auth.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	Username   string
	Password   string
	Expiration time.Duration `validate:"gt=0"`
}

// Enabled reports whether token auth is configured.
func (j JWTConfig) Enabled() bool {
	return j.Secret != ""
}

// Load reads configuration from .env and the environment with sensible
// defaults, then validates it.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:      getenvDefault("PORT", "8080"),
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),

		HTTPMaxRetries: getenvInt("HTTP_MAX_RETRIES", 3),

		CacheDuration:   time.Duration(getenvInt("CACHE_DURATION_MINUTES", 60)) * time.Minute,
		CacheBackend:    getenvDefault("CACHE_BACKEND", CacheBackendMemory),
		CacheMaxEntries: getenvInt("CACHE_MAX_ENTRIES", 1000),
		RedisAddr:       getenvDefault("REDIS_ADDR", "localhost:6379"),

		CountryBaseURL:    getenvDefault("COUNTRY_BASE_URL", "https://restcountries.com/v3.1/"),
		WeatherBaseURL:    getenvDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		NewsBaseURL:       getenvDefault("NEWS_BASE_URL", "https://newsapi.org/v2/"),
		NewsAPIKey:        os.Getenv("NEWS_API_KEY"),
		NewsProvider:      getenvDefault("NEWS_PROVIDER", "newsapi"),
		NewsDateFormat:    getenvDefault("NEWS_DATE_FORMAT", "yyyy-MM-dd"),
		NewsPageSize:      getenvInt("NEWS_DEFAULT_PAGE_SIZE", 10),

		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getenvDefault("JWT_ISSUER", "country-data-aggregation"),
			Audience:   getenvDefault("JWT_AUDIENCE", "country-data-aggregation"),
			Username:   os.Getenv("JWT_USERNAME"),
			Password:   os.Getenv("JWT_PASSWORD"),
			Expiration: time.Duration(getenvInt("JWT_EXPIRATION_MINUTES", 60)) * time.Minute,
		},
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CachePurgeInterval, err = getenvDuration("CACHE_PURGE_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
