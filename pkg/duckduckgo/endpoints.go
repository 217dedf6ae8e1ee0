package duckduckgo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the default search backend
	BaseURL = "https://duckduckgo.com"

	// ImagesEndpoint serves the paginated JSON image results
	ImagesEndpoint = "/i.js"

	// BatchSize is how far the result offset advances per page
	BatchSize = 100

	// bodyPreviewLimit caps how much of an undecodable page is logged
	bodyPreviewLimit = 300
)

// Fixed request headers. The image endpoint answers only requests that look
// like the search page's own XHR calls.
const (
	acceptHeader    = "application/json, text/javascript, */*; q=0.01"
	requestedWith   = "XMLHttpRequest"
	defaultLanguage = "en-US"
)

// SearchURL builds the initial search page URL whose body carries the token
func SearchURL(base, query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("t", "h_")
	params.Set("iax", "images")
	params.Set("ia", "images")

	return fmt.Sprintf("%s/?%s", strings.TrimRight(base, "/"), params.Encode())
}

// ImagesURL builds the results page URL for the given token and offset.
// The parameter order is fixed and the filter value is sent unescaped.
func ImagesURL(base, query, token string, offset int) string {
	return fmt.Sprintf("%s%s?q=%s&vqd=%s&o=json&f=,,,&p=1&l=%s&s=%d",
		strings.TrimRight(base, "/"),
		ImagesEndpoint,
		url.QueryEscape(query),
		url.QueryEscape(token),
		defaultLanguage,
		offset,
	)
}

// RefererURL is the Referer value sent with every request
func RefererURL(base string) string {
	return strings.TrimRight(base, "/") + "/"
}
