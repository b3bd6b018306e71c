package providers

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
	"github.com/i474232898/country-data-aggregation/internal/common"
)

const (
	countryCacheKey = "Country:all"
	countryPath     = "all?fields=cca2,name,capital"

	msgCountryRequired = "Country name cannot be null or empty."
	msgNoCountries     = "No countries found in the external API."
	msgCountryNotFound = "Country not found in the external API."
	msgNoCapital       = "No capital city found"
	msgSuccess         = "Success"
)

// restCountry is the subset of the REST Countries v3.1 schema we consume.
type restCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Capital []string `json:"capital"`
}

// CountryProvider implements aggregation.CountryProvider for REST Countries.
type CountryProvider struct {
	src source
}

func NewCountryProvider(opts Options) *CountryProvider {
	return &CountryProvider{src: newSource("restcountries", opts)}
}

// CapitalCity finds countryName in the full country list and returns its
// common name and capital.
func (p *CountryProvider) CapitalCity(ctx context.Context, countryName string) aggregation.Envelope {
	if common.IsBlank(countryName) {
		p.src.logger.Warn("capital lookup called with empty country name")
		return aggregation.Failure(msgCountryRequired, aggregation.StatusError)
	}
	countryName = strings.TrimSpace(countryName)

	raw := p.src.load(ctx, countryCacheKey, countryPath)

	var countries []restCountry
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &countries); err != nil {
			p.src.logger.Error("decoding countries response", zap.Error(err))
			countries = nil
		}
	}
	if len(countries) == 0 {
		p.src.logger.Warn("no countries retrieved from external API")
		p.src.evict(ctx, countryCacheKey)
		return aggregation.Failure(msgNoCountries, aggregation.StatusError)
	}

	match := findCountry(countries, countryName)
	if match == nil {
		p.src.logger.Info("country not found", zap.String("country", countryName))
		p.src.evict(ctx, countryCacheKey)
		return aggregation.Failure(msgCountryNotFound, aggregation.StatusError)
	}

	return aggregation.NewEnvelope(msgSuccess, aggregation.StatusSuccess, toCountryInfo(*match))
}

// findCountry prefers an exact (case-insensitive) match on the official or
// common name and falls back to the first partial match in provider order.
func findCountry(countries []restCountry, name string) *restCountry {
	for i := range countries {
		c := &countries[i]
		if strings.EqualFold(c.Name.Official, name) || strings.EqualFold(c.Name.Common, name) {
			return c
		}
	}
	for i := range countries {
		c := &countries[i]
		if common.ContainsFold(c.Name.Official, name) || common.ContainsFold(c.Name.Common, name) {
			return c
		}
	}
	return nil
}

func toCountryInfo(c restCountry) aggregation.CountryInfo {
	capital := strings.Join(c.Capital, " ")
	if len(c.Capital) == 0 {
		capital = msgNoCapital
	}
	return aggregation.CountryInfo{
		Name:    c.Name.Common,
		Capital: capital,
	}
}
