package providers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/cache"
)

// DefaultCacheTTL applies when Options.CacheTTL is not set.
const DefaultCacheTTL = 60 * time.Minute

// Options configures a source adapter.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Backoff    BackoffConfig
	Cache      *cache.Cache
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// source is the fetch-and-cache half shared by every adapter. Adapters own
// validation, parsing and the emptiness check.
type source struct {
	client *Client
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func newSource(name string, opts Options) source {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Backoff == (BackoffConfig{}) {
		opts.Backoff = DefaultBackoff
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.NewMemoryStore(0, nil), opts.Logger)
	}

	client := NewClient(name, opts.BaseURL, opts.HTTPClient, opts.Backoff)
	return source{
		client: client,
		cache:  opts.Cache,
		ttl:    opts.CacheTTL,
		logger: opts.Logger.With(zap.String("provider", client.Name())),
	}
}

// load returns the raw payload for key, fetching path on a cache miss.
// Transport failures and non-success statuses are cached as an empty payload,
// which every adapter treats as "no data". The fetch is shared with concurrent
// callers and bounded by the HTTP client timeout, not by ctx.
func (s source) load(ctx context.Context, key, path string) []byte {
	raw, err := s.cache.GetOrCompute(ctx, key, s.ttl, func(ctx context.Context) ([]byte, error) {
		s.logger.Debug("fetching from provider", zap.String("key", key))

		resp, err := s.client.Get(ctx, path)
		if err != nil {
			s.logger.Error("provider request failed", zap.String("key", key), zap.Error(err))
			return []byte{}, nil
		}
		if !resp.OK() {
			s.logger.Warn("provider returned non-success status",
				zap.String("key", key),
				zap.Int("status", resp.StatusCode))
			return []byte{}, nil
		}
		return resp.Body, nil
	})
	if err != nil {
		s.logger.Warn("provider fetch abandoned", zap.String("key", key), zap.Error(err))
		return nil
	}
	return raw
}

// evict drops key after an adapter found no usable data. A caller whose ctx
// already ended saw no payload because it stopped waiting, which says nothing
// about the cached entry, so it leaves the key alone.
func (s source) evict(ctx context.Context, key string) {
	if ctx.Err() != nil {
		return
	}
	s.cache.Evict(ctx, key)
}
