package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
	"github.com/i474232898/country-data-aggregation/internal/aggregation/providers"
	"github.com/i474232898/country-data-aggregation/internal/auth"
	"github.com/i474232898/country-data-aggregation/internal/cache"
	"github.com/i474232898/country-data-aggregation/internal/config"
)

// application holds the wired collaborators shared by the commands.
type application struct {
	service *aggregation.Service
	auth    *auth.Service
	// memory is set when the in-memory backend is used and needs purging.
	memory  *cache.MemoryStore
	closers []func() error
	logger  *zap.Logger
}

func newApplication(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*application, error) {
	a := &application{logger: logger}

	var store cache.Store
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rs := cache.NewRedisStore(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable; requests will bypass the cache until it recovers",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		a.closers = append(a.closers, rs.Close)
		store = rs
	default:
		a.memory = cache.NewMemoryStore(cfg.CacheMaxEntries, nil)
		store = a.memory
	}
	shared := cache.New(store, logger.Named("cache"))

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.HTTPMaxRetries

	opts := func(baseURL, apiKey string) providers.Options {
		return providers.Options{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			HTTPClient: httpClient,
			Backoff:    backoff,
			Cache:      shared,
			CacheTTL:   cfg.CacheDuration,
			Logger:     logger.Named("providers"),
		}
	}

	country := providers.NewCountryProvider(opts(cfg.CountryBaseURL, ""))
	weather := providers.NewWeatherProvider(opts(cfg.WeatherBaseURL, cfg.OpenWeatherAPIKey))
	news := providers.NewNewsProvider(
		opts(cfg.NewsBaseURL, cfg.NewsAPIKey),
		providers.NewsFormat(cfg.NewsProvider),
		cfg.NewsDateFormat,
	)

	a.service = aggregation.NewService(country, weather, news,
		aggregation.WithDefaultPageSize(cfg.NewsPageSize),
		aggregation.WithFromDateLayout(providers.DateLayout(cfg.NewsDateFormat)),
		aggregation.WithLogger(logger.Named("aggregation")),
	)

	a.auth = auth.NewService(auth.Settings{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		Username:   cfg.JWT.Username,
		Password:   cfg.JWT.Password,
		Expiration: cfg.JWT.Expiration,
	}, nil)

	return a, nil
}

// Close releases external connections.
func (a *application) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("error releasing resource", zap.Error(err))
		}
	}
}
