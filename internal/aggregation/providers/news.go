package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
	"github.com/i474232898/country-data-aggregation/internal/common"
)

// NewsFormat selects the upstream news API flavour.
type NewsFormat string

const (
	NewsFormatNewsAPI NewsFormat = "newsapi"
	NewsFormatRSS     NewsFormat = "rss"
)

const (
	newsCachePrefix = "News:"

	// DefaultNewsDatePattern is the accepted fromDate pattern.
	DefaultNewsDatePattern = "yyyy-MM-dd"

	msgQueryRequired = "Search query must be provided."
	msgNoNews        = "No news articles found."
	msgDateFormat    = "Please use this date format: %s"
)

var datePatternTokens = strings.NewReplacer(
	"yyyy", "2006",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// NewsProvider implements aggregation.NewsProvider for NewsAPI or an RSS
// search endpoint.
type NewsProvider struct {
	src         source
	apiKey      string
	format      NewsFormat
	datePattern string
	dateLayout  string
}

// NewNewsProvider creates a news adapter. datePattern uses yyyy/MM/dd/HH/mm/ss
// tokens; empty means DefaultNewsDatePattern.
func NewNewsProvider(opts Options, format NewsFormat, datePattern string) *NewsProvider {
	if format == "" {
		format = NewsFormatNewsAPI
	}
	if datePattern == "" {
		datePattern = DefaultNewsDatePattern
	}
	return &NewsProvider{
		src:         newSource("news-"+string(format), opts),
		apiKey:      opts.APIKey,
		format:      format,
		datePattern: datePattern,
		dateLayout:  DateLayout(datePattern),
	}
}

// DateLayout translates a yyyy/MM/dd/HH/mm/ss pattern into a Go time layout.
func DateLayout(pattern string) string {
	if pattern == "" {
		pattern = DefaultNewsDatePattern
	}
	return datePatternTokens.Replace(pattern)
}

// Headlines returns the titles of articles about query published since
// fromDate, at most pageSize of them, wrapped in a single envelope.
func (p *NewsProvider) Headlines(ctx context.Context, query, fromDate string, pageSize int) []aggregation.Envelope {
	if common.IsBlank(query) {
		p.src.logger.Warn("headlines called with empty query")
		return []aggregation.Envelope{aggregation.Failure(msgQueryRequired, aggregation.StatusError)}
	}

	var from time.Time
	if fromDate != "" {
		parsed, err := time.Parse(p.dateLayout, fromDate)
		if err != nil {
			p.src.logger.Warn("invalid date format", zap.String("fromDate", fromDate))
			return []aggregation.Envelope{
				aggregation.Failure(fmt.Sprintf(msgDateFormat, p.datePattern), aggregation.StatusError),
			}
		}
		from = parsed
	}

	key := common.CacheKey(newsCachePrefix, query, strconv.Itoa(pageSize), fromDate)
	raw := p.src.load(ctx, key, p.path(query, fromDate, pageSize))

	titles, err := p.decode(raw, from, pageSize)
	if err != nil {
		p.src.logger.Error("decoding news response", zap.String("query", query), zap.Error(err))
	}
	if len(titles) == 0 {
		p.src.logger.Info("no news found", zap.String("query", query))
		p.src.evict(ctx, key)
		return []aggregation.Envelope{aggregation.Failure(msgNoNews, aggregation.StatusError)}
	}

	articles := make([]aggregation.Article, 0, len(titles))
	for _, title := range titles {
		if title == "" {
			continue
		}
		articles = append(articles, aggregation.Article{Title: title})
	}

	return []aggregation.Envelope{
		aggregation.NewEnvelope(msgSuccess, aggregation.StatusSuccess, aggregation.NewsInfo{Articles: articles}),
	}
}

func (p *NewsProvider) path(query, fromDate string, pageSize int) string {
	values := url.Values{}
	values.Set("q", strings.TrimSpace(query))

	if p.format == NewsFormatRSS {
		return "search?" + values.Encode()
	}

	values.Set("from", fromDate)
	values.Set("sortBy", "publishedAt")
	values.Set("apiKey", p.apiKey)
	values.Set("pageSize", strconv.Itoa(pageSize))
	return "everything?" + values.Encode()
}

// decode returns one title per upstream article, blank titles included, so
// that callers can tell "no articles" from "no usable titles".
func (p *NewsProvider) decode(raw []byte, from time.Time, pageSize int) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if p.format == NewsFormatRSS {
		return decodeRSS(raw, from, pageSize)
	}
	return decodeNewsAPI(raw)
}

func decodeNewsAPI(raw []byte) ([]string, error) {
	var payload struct {
		Status       string `json:"status"`
		TotalResults int    `json:"totalResults"`
		Articles     []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		titles = append(titles, strings.TrimSpace(a.Title))
	}
	return titles, nil
}

// gofeed parsers keep per-parse state, so each call gets its own.
func decodeRSS(raw []byte, from time.Time, pageSize int) ([]string, error) {
	feed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, item := range feed.Items {
		if pageSize > 0 && len(titles) >= pageSize {
			break
		}
		if !from.IsZero() && item.PublishedParsed != nil && item.PublishedParsed.Before(from) {
			continue
		}
		titles = append(titles, strings.TrimSpace(item.Title))
	}
	return titles, nil
}
