package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
)

const greeceNews = `{
	"status": "ok",
	"totalResults": 3,
	"articles": [
		{"source": {"id": null, "name": "Example"}, "title": "Headline1"},
		{"source": {"id": null, "name": "Example"}, "title": ""},
		{"source": {"id": null, "name": "Example"}, "title": "Headline2"}
	]
}`

const greeceFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Greece - News</title>
	<item><title>Fresh headline</title><pubDate>Wed, 02 Jul 2025 10:00:00 GMT</pubDate></item>
	<item><title>Old headline</title><pubDate>Mon, 30 Jun 2025 10:00:00 GMT</pubDate></item>
	<item><title>Undated headline</title></item>
	<item><title>Another fresh headline</title><pubDate>Thu, 03 Jul 2025 10:00:00 GMT</pubDate></item>
</channel>
</rss>`

func TestNews_BlankQueryMakesNoRequest(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, greeceNews))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	envs := p.Headlines(context.Background(), " ", "2025-07-01", 5)

	require.Len(t, envs, 1)
	assert.Equal(t, msgQueryRequired, envs[0].Message)
	assert.Equal(t, aggregation.StatusError, envs[0].Status)
	assert.Zero(t, srv.Hits())
}

func TestNews_InvalidDateMakesNoRequest(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, greeceNews))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	for _, date := range []string{"01/07/2025", "2025-13-01", "yesterday"} {
		envs := p.Headlines(context.Background(), "Greece", date, 5)

		require.Len(t, envs, 1)
		assert.Equal(t, "Please use this date format: yyyy-MM-dd", envs[0].Message)
		assert.Equal(t, aggregation.StatusError, envs[0].Status)
		assert.Nil(t, envs[0].Data)
	}
	assert.Zero(t, srv.Hits())
}

func TestNews_CustomDatePattern(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, greeceNews))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "dd/MM/yyyy")

	envs := p.Headlines(context.Background(), "Greece", "01/07/2025", 5)
	require.Len(t, envs, 1)
	assert.Equal(t, aggregation.StatusSuccess, envs[0].Status)

	envs = p.Headlines(context.Background(), "Greece", "2025-07-01", 5)
	require.Len(t, envs, 1)
	assert.Equal(t, "Please use this date format: dd/MM/yyyy", envs[0].Message)
}

func TestNews_SuccessFiltersBlankTitles(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, greeceNews))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	envs := p.Headlines(context.Background(), "Greece", "2025-07-01", 5)

	require.Len(t, envs, 1)
	assert.Equal(t, msgSuccess, envs[0].Message)
	assert.Equal(t, aggregation.StatusSuccess, envs[0].Status)
	assert.Equal(t, aggregation.NewsInfo{Articles: []aggregation.Article{
		{Title: "Headline1"},
		{Title: "Headline2"},
	}}, envs[0].Data)

	q := srv.LastRequest().URL.Query()
	assert.Equal(t, "/everything", srv.LastRequest().URL.Path)
	assert.Equal(t, "Greece", q.Get("q"))
	assert.Equal(t, "2025-07-01", q.Get("from"))
	assert.Equal(t, "publishedAt", q.Get("sortBy"))
	assert.Equal(t, "test-key", q.Get("apiKey"))
	assert.Equal(t, "5", q.Get("pageSize"))
}

func TestNews_RepeatedCallsHitCache(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, greeceNews))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	first := p.Headlines(context.Background(), "Greece", "2025-07-01", 5)
	second := p.Headlines(context.Background(), " greece ", "2025-07-01", 5)
	other := p.Headlines(context.Background(), "Greece", "2025-07-01", 6)

	assert.Equal(t, first, second)
	assert.Equal(t, first, other)
	assert.Equal(t, 2, srv.Hits())
}

func TestNews_ZeroArticlesEvicts(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, `{"status": "ok", "totalResults": 0, "articles": []}`))
	opts, store := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	envs := p.Headlines(context.Background(), "Greece", "2025-07-01", 5)

	require.Len(t, envs, 1)
	assert.Equal(t, msgNoNews, envs[0].Message)
	assert.Equal(t, aggregation.StatusError, envs[0].Status)
	assert.Nil(t, envs[0].Data)
	assert.Zero(t, store.Len())

	p.Headlines(context.Background(), "Greece", "2025-07-01", 5)
	assert.Equal(t, 2, srv.Hits())
}

func TestNews_UpstreamFailureIsNoData(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusUnauthorized, `{"status": "error", "code": "apiKeyInvalid"}`))
	opts, store := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatNewsAPI, "")

	envs := p.Headlines(context.Background(), "Greece", "2025-07-01", 5)

	require.Len(t, envs, 1)
	assert.Equal(t, msgNoNews, envs[0].Message)
	assert.Zero(t, store.Len())
}

func TestNews_RSSFeed(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(greeceFeed))
	})
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatRSS, "")

	envs := p.Headlines(context.Background(), "Greece", "2025-07-01", 2)

	require.Len(t, envs, 1)
	assert.Equal(t, aggregation.StatusSuccess, envs[0].Status)
	assert.Equal(t, aggregation.NewsInfo{Articles: []aggregation.Article{
		{Title: "Fresh headline"},
		{Title: "Undated headline"},
	}}, envs[0].Data)
	assert.Equal(t, "/search", srv.LastRequest().URL.Path)
	assert.Equal(t, "Greece", srv.LastRequest().URL.Query().Get("q"))
	assert.Empty(t, srv.LastRequest().URL.Query().Get("apiKey"))
}

func TestNews_RSSInvalidFeedIsNoData(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(http.StatusOK, `not a feed`))
	opts, _ := testOptions(srv.URL)
	p := NewNewsProvider(opts, NewsFormatRSS, "")

	envs := p.Headlines(context.Background(), "Greece", "2025-07-01", 5)

	require.Len(t, envs, 1)
	assert.Equal(t, msgNoNews, envs[0].Message)
}

func TestDateLayout(t *testing.T) {
	assert.Equal(t, "2006-01-02", DateLayout(""))
	assert.Equal(t, "02/01/2006", DateLayout("dd/MM/yyyy"))
	assert.Equal(t, "2006-01-02T15:04:05", DateLayout("yyyy-MM-ddTHH:mm:ss"))
}
