// Package testutil provides a fake search backend and image fixtures for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Image is a canned response for one image path
type Image struct {
	Status      int
	ContentType string
	Body        []byte
}

// SearchServer imitates the search page, the i.js results endpoint and an
// image host on one httptest server.
type SearchServer struct {
	*httptest.Server

	// Token is embedded in the search page; empty means the page has none
	Token string
	// Pages holds the image URLs of each results page, indexed by offset/100
	Pages [][]string
	// RawPages overrides the body returned at a given offset
	RawPages map[int]string

	mu       sync.Mutex
	images   map[string]Image
	requests []*http.Request
}

// NewSearchServer starts a fake backend that is closed with the test
func NewSearchServer(t *testing.T, token string) *SearchServer {
	t.Helper()

	s := &SearchServer{
		Token:    token,
		RawPages: map[int]string{},
		images:   map[string]Image{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddImage registers an image at path and returns its absolute URL
func (s *SearchServer) AddImage(path string, img Image) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if img.Status == 0 {
		img.Status = http.StatusOK
	}
	s.images[path] = img
	return s.URL + path
}

// AddPage appends a results page
func (s *SearchServer) AddPage(urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pages = append(s.Pages, urls)
}

// Requests returns the requests received so far
func (s *SearchServer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*http.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// PageRequests returns the i.js requests received so far
func (s *SearchServer) PageRequests() []*http.Request {
	var out []*http.Request
	for _, r := range s.Requests() {
		if r.URL.Path == "/i.js" {
			out = append(out, r)
		}
	}
	return out
}

func (s *SearchServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	s.mu.Unlock()

	switch r.URL.Path {
	case "/":
		s.serveSearchPage(w)
	case "/i.js":
		s.serveResults(w, r)
	default:
		s.serveImage(w, r)
	}
}

func (s *SearchServer) serveSearchPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	if s.Token == "" {
		fmt.Fprint(w, `<html><body>captcha</body></html>`)
		return
	}
	fmt.Fprintf(w, `<html><script>nrj('/d.js?q=x&l=us-en&s=0&ct=US&vqd=%s&p_ent=&ex=-1');</script></html>`, s.Token)
}

func (s *SearchServer) serveResults(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("vqd") != s.Token {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("s"))

	s.mu.Lock()
	raw, hasRaw := s.RawPages[offset]
	idx := offset / 100
	var urls []string
	if idx < len(s.Pages) {
		urls = s.Pages[idx]
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if hasRaw {
		fmt.Fprint(w, raw)
		return
	}

	type result struct {
		Image string `json:"image"`
		Title string `json:"title"`
	}
	resp := struct {
		Results []result `json:"results"`
	}{Results: []result{}}
	for i, u := range urls {
		resp.Results = append(resp.Results, result{Image: u, Title: fmt.Sprintf("result %d", offset+i)})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *SearchServer) serveImage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	img, ok := s.images[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if img.ContentType != "" {
		w.Header().Set("Content-Type", img.ContentType)
	}
	w.WriteHeader(img.Status)
	_, _ = w.Write(img.Body)
}
