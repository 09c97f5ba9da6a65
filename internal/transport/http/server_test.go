package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus"
	feedService "github.com/reshetovitsme/fn-news-bridge/internal/modules/feed/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	newsRepo "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/repository"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *newsRepo.FileStorage) {
	t.Helper()

	repo, err := newsRepo.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordFetchSuccess()

	cfg := &config.Config{BattleRoyale: true, Creative: true, HTTPPort: "0", UpdateInterval: 120}
	srv := New(cfg, feedService.New(repo, nil, nil), reg)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRSSFeed(t *testing.T) {
	ts, repo := newTestServer(t)
	require.NoError(t, repo.Write(domain.ModeBattleRoyale, []domain.Item{
		{ID: "1", Title: "Season Launch", Body: "Drop in now"},
		{ID: "2", Title: "Item Shop", Body: "Fresh items"},
	}))

	resp, body := get(t, ts.URL+"/rss/battleRoyale")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=120", resp.Header.Get("Cache-Control"))

	feed, err := gofeed.NewParser().ParseString(body)
	require.NoError(t, err)
	assert.Equal(t, "Fortnite Battle Royale News", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Season Launch", feed.Items[0].Title)
	assert.Contains(t, feed.Items[0].Description, "Drop in now")
	assert.Equal(t, ts.URL+"/rss/battleRoyale#2", feed.Items[1].Link)
}

func TestRSSFeed_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := get(t, ts.URL+"/rss/saveTheWorld")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, ts.URL+"/rss/creative")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "No snapshot")
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "newsbridge_fetch_success_total 1")
}

func TestRoot(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/rss/battleRoyale"`)
	assert.Contains(t, body, `href="/rss/creative"`)

	resp, _ = get(t, ts.URL+"/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
