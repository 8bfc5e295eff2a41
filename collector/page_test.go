package collector

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumi-dev/polifeed/model"
)

const publicPageFixture = `<!DOCTYPE html>
<html><body>
  <article>
    <a href="/posts/1">投稿を見る</a>
    <p>本日の活動報告です</p>
    <img src="https://cdn.example.com/1.jpg">
    <time datetime="2024-04-01T09:00:00+09:00">4月1日</time>
  </article>
  <article>
    <p>リンクのない飾り枠</p>
  </article>
</body></html>`

func TestScrapeExtractsPostElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(publicPageFixture))
	}))
	defer srv.Close()

	entries, err := NewPageScraper(model.PlatformInstagram).Scrape(srv.URL)
	require.NoError(t, err)

	// The second article has no link and is dropped.
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, model.PlatformInstagram, entry.Platform)
	assert.Equal(t, srv.URL+"/posts/1", entry.Link)
	assert.Contains(t, entry.Content, "本日の活動報告です")
	assert.Equal(t, []string{"https://cdn.example.com/1.jpg"}, entry.MediaUrls)
	require.NotNil(t, entry.PublishedAt)
}

// An element matching several post selectors at once must produce exactly
// one entry.
func TestScrapeOverlappingSelectorsYieldOneEntry(t *testing.T) {
	page := `<!DOCTYPE html>
<html><body>
  <article class="post">
    <a href="/posts/1">投稿を見る</a>
    <p>本日の活動報告です</p>
  </article>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	entries, err := NewPageScraper(model.PlatformInstagram).Scrape(srv.URL)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, srv.URL+"/posts/1", entries[0].Link)
}

func TestScrapeMapsHTTPFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewPageScraper(model.PlatformFacebook).Scrape(srv.URL)
	require.Error(t, err)
	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, http.StatusForbidden, srcErr.StatusCode)
}

func TestScrapeUnreachableHost(t *testing.T) {
	_, err := NewPageScraper(model.PlatformFacebook).Scrape("http://127.0.0.1:1/page")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}
