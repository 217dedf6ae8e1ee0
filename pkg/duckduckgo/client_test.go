package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"imgscrape/internal/testutil"
	"imgscrape/pkg/config"
	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "4-123456789012345678901234567890"

func newTestClient(srv *testutil.SearchServer, log logger.Logger) *Client {
	return NewClient(config.SearchConfig{BaseURL: srv.URL}, log, WithPageDelay(0))
}

func makeURLs(prefix string, n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://img.example/%s/%d.jpg", prefix, i)
	}
	return urls
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://duckduckgo.com", "studio ghibli")
	assert.Equal(t, "https://duckduckgo.com/?ia=images&iax=images&q=studio+ghibli&t=h_", got)
}

func TestImagesURL(t *testing.T) {
	got := ImagesURL("https://duckduckgo.com/", "cats & dogs", "4-99", 200)
	assert.Equal(t, "https://duckduckgo.com/i.js?q=cats+%26+dogs&vqd=4-99&o=json&f=,,,&p=1&l=en-US&s=200", got)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(config.SearchConfig{}, logger.NewTestLogger())

	assert.Equal(t, BaseURL, c.baseURL)
	assert.Equal(t, config.DefaultUserAgent, c.headers["User-Agent"])
	assert.Equal(t, "https://duckduckgo.com/", c.headers["Referer"])
	assert.Equal(t, DefaultPageDelay, c.pageDelay)
	assert.Zero(t, c.httpClient.Timeout)
}

func TestFetchToken(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	c := newTestClient(srv, logger.NewTestLogger())

	token, err := c.FetchToken(context.Background(), "studio ghibli")
	require.NoError(t, err)
	assert.Equal(t, testToken, token)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "studio ghibli", reqs[0].URL.Query().Get("q"))
	assert.Equal(t, "images", reqs[0].URL.Query().Get("iax"))
	assert.Equal(t, config.DefaultUserAgent, reqs[0].Header.Get("User-Agent"))
	assert.Equal(t, "XMLHttpRequest", reqs[0].Header.Get("X-Requested-With"))
	assert.Equal(t, acceptHeader, reqs[0].Header.Get("Accept"))
	assert.Equal(t, srv.URL+"/", reqs[0].Header.Get("Referer"))
}

func TestFetchTokenMissing(t *testing.T) {
	srv := testutil.NewSearchServer(t, "")
	c := newTestClient(srv, logger.NewTestLogger())

	token, err := c.FetchToken(context.Background(), "cats")
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTokenNotFound))
}

type staticExtractor string

func (s staticExtractor) Extract([]byte) (string, bool) { return string(s), s != "" }

func TestFetchTokenCustomExtractor(t *testing.T) {
	srv := testutil.NewSearchServer(t, "")
	c := NewClient(config.SearchConfig{BaseURL: srv.URL}, logger.NewTestLogger(),
		WithTokenExtractor(staticExtractor("fixed-token")))

	token, err := c.FetchToken(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", token)
}

func TestRegexTokenExtractor(t *testing.T) {
	e, err := NewRegexTokenExtractor()
	require.NoError(t, err)

	token, ok := e.Extract([]byte(`foo vqd=3-1111-2222&bar`))
	assert.True(t, ok)
	assert.Equal(t, "3-1111-2222", token)

	_, ok = e.Extract([]byte(`vqd="3-1111"`))
	assert.False(t, ok, "the default pattern needs a trailing ampersand")

	quoted, err := NewRegexTokenExtractor(DefaultTokenPattern, `vqd="([\d-]+)"`)
	require.NoError(t, err)
	token, ok = quoted.Extract([]byte(`vqd="3-1111"`))
	assert.True(t, ok)
	assert.Equal(t, "3-1111", token)

	_, err = NewRegexTokenExtractor("(")
	assert.Error(t, err)
}

func TestCollectImageURLsStopsAtTarget(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 100)...)
	srv.AddPage(makeURLs("b", 100)...)
	srv.AddPage(makeURLs("c", 100)...)
	c := newTestClient(srv, logger.NewTestLogger())

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 150)

	require.Len(t, urls, 150)
	assert.Equal(t, "http://img.example/a/0.jpg", urls[0])
	assert.Equal(t, "http://img.example/b/49.jpg", urls[149])

	pages := srv.PageRequests()
	require.Len(t, pages, 2)
	assert.Equal(t, "0", pages[0].URL.Query().Get("s"))
	assert.Equal(t, "100", pages[1].URL.Query().Get("s"))
	assert.Equal(t, ",,,", pages[1].URL.Query().Get("f"))
	assert.Equal(t, testToken, pages[1].URL.Query().Get("vqd"))
}

func TestCollectImageURLsStopsOnEmptyPage(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 4)...)
	c := newTestClient(srv, logger.NewTestLogger())

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 10)

	assert.Len(t, urls, 4)
	assert.Len(t, srv.PageRequests(), 2)
}

func TestCollectImageURLsKeepsDuplicatesAndSkipsBlank(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.RawPages[0] = `{"results":[{"image":"http://x/1.jpg"},{"image":""},{"image":"http://x/1.jpg"}]}`
	c := newTestClient(srv, logger.NewTestLogger())

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 5)
	assert.Equal(t, []string{"http://x/1.jpg", "http://x/1.jpg"}, urls)
}

func TestCollectImageURLsStopsOnDecodeFailure(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 100)...)
	srv.RawPages[100] = "<html>" + strings.Repeat("x", 1000) + "</html>"
	srv.AddPage(makeURLs("b", 100)...)
	srv.AddPage(makeURLs("c", 100)...)
	log := logger.NewTestLogger()
	c := newTestClient(srv, log)

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 300)

	assert.Len(t, urls, 100)
	assert.Len(t, srv.PageRequests(), 2)

	var previewLogged bool
	for _, msg := range log.GetMessagesByLevel("ERROR") {
		if p, ok := msg.Fields["body_preview"].(string); ok {
			previewLogged = true
			assert.Len(t, p, bodyPreviewLimit)
			assert.True(t, strings.HasPrefix(p, "<html>"))
		}
	}
	assert.True(t, previewLogged, "body preview should be logged")
	assert.True(t, log.HasMessage("Error fetching results at offset 100"))
}

func TestCollectImageURLsZeroTarget(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 10)...)
	c := newTestClient(srv, logger.NewTestLogger())

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 0)
	assert.Empty(t, urls)
	assert.Empty(t, srv.PageRequests())
}

func TestCollectImageURLsPacesPages(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 100)...)
	srv.AddPage(makeURLs("b", 100)...)
	c := NewClient(config.SearchConfig{BaseURL: srv.URL}, logger.NewTestLogger(),
		WithPageDelay(60*time.Millisecond))

	start := time.Now()
	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 500)
	elapsed := time.Since(start)

	assert.Len(t, urls, 200)
	assert.Len(t, srv.PageRequests(), 3)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestCollectImageURLsHugeTarget(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	c := newTestClient(srv, logger.NewTestLogger())

	var urls []string
	require.NotPanics(t, func() {
		urls = c.CollectImageURLs(context.Background(), "cats", testToken, math.MaxInt)
	})
	assert.Empty(t, urls)
	assert.Len(t, srv.PageRequests(), 1)
}

func TestCollectImageURLsSkipsNonStringImages(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.RawPages[0] = `{"results":[{"image":"http://x/1.jpg"},{"image":123},{"image":null},{"image":{"u":"v"}},{"image":"http://x/2.jpg"}]}`
	srv.AddPage()
	srv.AddPage(makeURLs("b", 2)...)
	c := newTestClient(srv, logger.NewTestLogger())

	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 10)

	assert.Equal(t, []string{"http://x/1.jpg", "http://x/2.jpg", "http://img.example/b/0.jpg", "http://img.example/b/1.jpg"}, urls)
	assert.Len(t, srv.PageRequests(), 3)
}

// pageTimes records when each result page request started and finished
type pageTimes struct {
	mu     sync.Mutex
	starts []time.Time
	ends   []time.Time
}

func TestCollectImageURLsPausesAfterSlowPages(t *testing.T) {
	const (
		latency = 150 * time.Millisecond
		delay   = 100 * time.Millisecond
	)

	var times pageTimes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		times.mu.Lock()
		times.starts = append(times.starts, time.Now())
		times.mu.Unlock()

		time.Sleep(latency)

		page := ImagesResponse{}
		if offset, _ := strconv.Atoi(r.URL.Query().Get("s")); offset < 2*BatchSize {
			for _, u := range makeURLs(strconv.Itoa(offset), BatchSize) {
				page.Results = append(page.Results, ImageResult{Image: ImageURL(u)})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)

		// recorded before the handler returns, so before the client sees the body
		times.mu.Lock()
		times.ends = append(times.ends, time.Now())
		times.mu.Unlock()
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.SearchConfig{BaseURL: srv.URL}, logger.NewTestLogger(), WithPageDelay(delay))
	urls := c.CollectImageURLs(context.Background(), "cats", testToken, 1000)
	assert.Len(t, urls, 2*BatchSize)

	times.mu.Lock()
	defer times.mu.Unlock()
	require.Len(t, times.starts, 3)
	require.Len(t, times.ends, 3)
	for i := 1; i < len(times.starts); i++ {
		gap := times.starts[i].Sub(times.ends[i-1])
		assert.GreaterOrEqual(t, gap, delay, "gap between end of page %d and start of page %d", i-1, i)
	}
}

func TestCollectImageURLsCancelled(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	srv.AddPage(makeURLs("a", 100)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv, logger.NewTestLogger())
	urls := c.CollectImageURLs(ctx, "cats", testToken, 50)
	assert.Empty(t, urls)
}

func TestFetchImage(t *testing.T) {
	srv := testutil.NewSearchServer(t, testToken)
	okURL := srv.AddImage("/img/ok.jpg", testutil.Image{Body: []byte("jpeg-bytes")})
	badURL := srv.AddImage("/img/gone.jpg", testutil.Image{Status: http.StatusGone})
	c := newTestClient(srv, logger.NewTestLogger())

	data, err := c.FetchImage(context.Background(), okURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = c.FetchImage(context.Background(), badURL)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeImageFetch))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusGone, e.Code)

	_, err = c.FetchImage(context.Background(), "http://127.0.0.1:1/unreachable.jpg")
	assert.True(t, errors.IsType(err, errors.ErrorTypeImageFetch))
}
