package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"imgscrape/pkg/config"
	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"
)

// DefaultPageDelay is the pause after each result page
const DefaultPageDelay = 500 * time.Millisecond

// maxImageBytes bounds a single image download
const maxImageBytes = 50 << 20

// Client talks to the DuckDuckGo image search backend
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	extractor  TokenExtractor
	pageDelay  time.Duration
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenExtractor swaps the token parsing strategy
func WithTokenExtractor(e TokenExtractor) Option {
	return func(c *Client) { c.extractor = e }
}

// WithPageDelay sets the pause between result pages
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// NewClient creates a search client. Requests carry no client-side timeout;
// callers bound them through the context.
func NewClient(cfg config.SearchConfig, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	base := cfg.BaseURL
	if base == "" {
		base = BaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent":       userAgent,
			"Accept":           acceptHeader,
			"Referer":          RefererURL(base),
			"X-Requested-With": requestedWith,
		},
		baseURL:   base,
		extractor: defaultExtractor,
		pageDelay: DefaultPageDelay,
		logger:    log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a GET with the configured headers
func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, err, "failed to create request")
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "GET %s", rawURL)
	}

	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, duration)
	return resp, nil
}

// FetchToken loads the search page for query and extracts the session token
func (c *Client) FetchToken(ctx context.Context, query string) (string, error) {
	searchURL := SearchURL(c.baseURL, query)

	resp, err := c.doRequest(ctx, searchURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read search page")
	}

	token, ok := c.extractor.Extract(body)
	if !ok {
		e := errors.New(errors.ErrorTypeTokenNotFound, "no search token in response for %q", query)
		e.Code = resp.StatusCode
		return "", e
	}

	c.logger.DebugWithFields("search token found", map[string]interface{}{
		"query": query,
		"token": token,
	})
	return token, nil
}

// FetchPage requests one page of image results starting at offset
func (c *Client) FetchPage(ctx context.Context, query, token string, offset int) (*ImagesResponse, error) {
	pageURL := ImagesURL(c.baseURL, query, token, offset)

	resp, err := c.doRequest(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypePageFetch, err, "offset %d", offset)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypePageFetch, err, "failed to read page at offset %d", offset)
	}

	var page ImagesResponse
	decodeErr := json.Unmarshal(body, &page)
	if decodeErr == nil && errors.IsSuccessStatusCode(resp.StatusCode) {
		return &page, nil
	}

	c.logger.ErrorWithFields("failed to decode result page", map[string]interface{}{
		"offset":       offset,
		"status":       resp.StatusCode,
		"body_preview": preview(body, bodyPreviewLimit),
	})

	if decodeErr == nil {
		decodeErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	e := errors.Wrap(errors.ErrorTypePageFetch, decodeErr, "invalid page at offset %d", offset)
	e.Code = resp.StatusCode
	return nil, e
}

// CollectImageURLs pages through the results until target URLs are gathered,
// a page comes back empty, or a page cannot be fetched or decoded. It returns
// whatever was collected; a short list is not an error.
func (c *Client) CollectImageURLs(ctx context.Context, query, token string, target int) []string {
	if target <= 0 {
		return []string{}
	}

	urls := make([]string, 0, min(target, BatchSize))
	log := c.logger.WithField("query", query)

	for offset := 0; len(urls) < target; offset += BatchSize {
		if offset > 0 {
			if err := c.pause(ctx); err != nil {
				log.WithError(err).Warn("Stopped paging")
				break
			}
		}

		page, err := c.FetchPage(ctx, query, token, offset)
		if err != nil {
			log.WithError(err).Error(fmt.Sprintf("Error fetching results at offset %d", offset))
			break
		}

		if len(page.Results) == 0 {
			log.WithField("offset", offset).Info("No more results")
			break
		}

		pageURLs := page.ImageURLs()
		for _, u := range pageURLs {
			urls = append(urls, u)
			if len(urls) >= target {
				break
			}
		}

		logger.LogPage(log, offset, len(pageURLs), len(urls), target)
	}

	return urls
}

// pause blocks for the page delay counted from now, i.e. from the end of the
// previous page fetch
func (c *Client) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchImage downloads the raw bytes of one image with the client headers.
// Any non-2xx status is an image_fetch error.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := c.doRequest(ctx, imageURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeImageFetch, err, "GET %s", imageURL)
	}
	defer resp.Body.Close()

	if !errors.IsSuccessStatusCode(resp.StatusCode) {
		e := errors.New(errors.ErrorTypeImageFetch, "unexpected status %d for %s", resp.StatusCode, imageURL)
		e.Code = resp.StatusCode
		return nil, e
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeImageFetch, err, "failed to read %s", imageURL)
	}
	if len(data) > maxImageBytes {
		return nil, errors.New(errors.ErrorTypeImageFetch, "image larger than %d bytes: %s", maxImageBytes, imageURL)
	}

	return data, nil
}

func preview(body []byte, limit int) string {
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
