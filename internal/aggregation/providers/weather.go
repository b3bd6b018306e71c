package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
	"github.com/i474232898/country-data-aggregation/internal/common"
)

const (
	weatherCachePrefix = "Weather:"

	msgCityRequired    = "City name must be provided."
	msgWeatherNotFound = "Weather Not found."
)

// WeatherProvider implements aggregation.WeatherProvider for OpenWeatherMap.
type WeatherProvider struct {
	src    source
	apiKey string
}

func NewWeatherProvider(opts Options) *WeatherProvider {
	return &WeatherProvider{
		src:    newSource("openweathermap", opts),
		apiKey: opts.APIKey,
	}
}

// Weather returns the current temperature and description for city.
func (p *WeatherProvider) Weather(ctx context.Context, city string) aggregation.Envelope {
	if common.IsBlank(city) {
		p.src.logger.Warn("weather lookup called with empty city")
		return aggregation.Failure(msgCityRequired, aggregation.StatusError)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	key := common.CacheKey(weatherCachePrefix, city)
	raw := p.src.load(ctx, key, fmt.Sprintf("weather?%s", values.Encode()))

	var payload struct {
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			p.src.logger.Error("decoding weather response", zap.String("city", city), zap.Error(err))
			payload.Weather = nil
		}
	}

	if len(payload.Weather) == 0 {
		p.src.logger.Info("weather not found", zap.String("city", city))
		p.src.evict(ctx, key)
		return aggregation.Failure(msgWeatherNotFound, aggregation.StatusError)
	}

	// Without a main block the reading is incomplete: zero temperature and
	// the not-found description.
	info := aggregation.WeatherInfo{Description: msgWeatherNotFound}
	if payload.Main != nil {
		info.Temperature = payload.Main.Temp
		if d := payload.Weather[0].Description; d != "" {
			info.Description = d
		}
	}

	return aggregation.NewEnvelope(msgSuccess, aggregation.StatusOK, info)
}
