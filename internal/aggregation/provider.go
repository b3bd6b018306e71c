package aggregation

import "context"

// CountryProvider resolves a country name to its normalized record.
// Implementations never return an error; failures are reported as envelopes
// without data.
type CountryProvider interface {
	CapitalCity(ctx context.Context, countryName string) Envelope
}

// WeatherProvider returns the current weather for a city.
type WeatherProvider interface {
	Weather(ctx context.Context, city string) Envelope
}

// NewsProvider returns headlines for a query. The result holds one or more
// envelopes.
type NewsProvider interface {
	Headlines(ctx context.Context, query, fromDate string, pageSize int) []Envelope
}

// capitalOf extracts the capital city from a country payload. Sources may
// report either a CountryInfo record or the bare capital name.
func capitalOf(data any) string {
	switch v := data.(type) {
	case CountryInfo:
		return v.Capital
	case *CountryInfo:
		if v == nil {
			return ""
		}
		return v.Capital
	case string:
		return v
	default:
		return ""
	}
}
