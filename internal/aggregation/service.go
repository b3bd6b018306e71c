package aggregation

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNewsPageSize = 10

	// defaultNewsLookback is how far back news is searched when no date is given.
	defaultNewsLookback   = 5 * 24 * time.Hour
	defaultFromDateLayout = "2006-01-02"

	MessageCountryEmpty    = "Country name cannot be empty"
	MessageCountryNotFound = "Country not found"
	MessageCancelled       = "Request cancelled before the source responded."
)

// Service orchestrates the country lookup and the weather/news fan-out.
type Service struct {
	country CountryProvider
	weather WeatherProvider
	news    NewsProvider

	clock           clock.Clock
	defaultPageSize int
	fromDateLayout  string
	logger          *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock sets the clock used for the default news date.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDefaultPageSize sets the page size used when the caller passes none.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultPageSize = n
		}
	}
}

// WithFromDateLayout sets the Go time layout the default news date is
// formatted with. It must match what the news provider accepts.
func WithFromDateLayout(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.fromDateLayout = layout
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new Service.
func NewService(country CountryProvider, weather WeatherProvider, news NewsProvider, opts ...Option) *Service {
	s := &Service{
		country:         country,
		weather:         weather,
		news:            news,
		clock:           clock.New(),
		defaultPageSize: DefaultNewsPageSize,
		fromDateLayout:  defaultFromDateLayout,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Aggregate looks up the country, then fetches weather for its capital and
// news for the country concurrently, and merges everything into one response.
// It never fails: every failure path is described inside the response.
func (s *Service) Aggregate(ctx context.Context, countryName string, newsPageSize int, fromDate string) AggregatedResponse {
	countryName = strings.TrimSpace(countryName)
	if countryName == "" {
		return Rejected(StatusBadRequest, MessageCountryEmpty)
	}

	if newsPageSize <= 0 {
		newsPageSize = s.defaultPageSize
	}
	if strings.TrimSpace(fromDate) == "" {
		fromDate = s.clock.Now().UTC().Add(-defaultNewsLookback).Format(s.fromDateLayout)
	}

	country := s.country.CapitalCity(ctx, countryName)
	if !country.HasData() {
		s.logger.Debug("country lookup returned no data",
			zap.String("country", countryName),
			zap.String("status", string(country.Status)),
			zap.String("message", country.Message))
		return Rejected(StatusNotFound, MessageCountryNotFound)
	}

	capital := capitalOf(country.Data)
	s.logger.Debug("resolved capital",
		zap.String("country", countryName),
		zap.String("capital", capital))

	weather, news := s.fanOut(ctx, countryName, capital, fromDate, newsPageSize)

	results := make([]Envelope, 0, 2+len(news))
	results = append(results, country, weather)
	results = append(results, news...)

	return Merge(results...)
}

// fanOut runs the weather and news lookups concurrently and waits for both,
// or for ctx to end. Branches that did not report by then are replaced with a
// cancellation failure.
func (s *Service) fanOut(ctx context.Context, countryName, capital, fromDate string, pageSize int) (Envelope, []Envelope) {
	weatherCh := make(chan Envelope, 1)
	newsCh := make(chan []Envelope, 1)

	// Branches report failures as envelopes, never as errors, so the group
	// only joins them. Both run on the caller's ctx and see its deadline.
	var g errgroup.Group
	g.Go(func() error {
		weatherCh <- s.weather.Weather(ctx, capital)
		return nil
	})
	g.Go(func() error {
		newsCh <- s.news.Headlines(ctx, countryName, fromDate, pageSize)
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("aggregation cancelled while waiting for sources",
			zap.String("country", countryName),
			zap.Error(ctx.Err()))
	}

	weather := Failure(MessageCancelled, StatusError)
	select {
	case w := <-weatherCh:
		weather = w
	default:
	}

	news := []Envelope{Failure(MessageCancelled, StatusError)}
	select {
	case n := <-newsCh:
		news = n
	default:
	}

	return weather, news
}
