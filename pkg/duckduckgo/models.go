package duckduckgo

import "encoding/json"

// ImagesResponse is one page from the i.js endpoint
type ImagesResponse struct {
	Results []ImageResult `json:"results"`
	Next    string        `json:"next,omitempty"`
	Query   string        `json:"query,omitempty"`
}

// ImageResult is a single search hit. Only Image is used for downloading;
// the rest is kept for debug logging.
type ImageResult struct {
	Image     ImageURL `json:"image"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Title     string   `json:"title,omitempty"`
	URL       string   `json:"url,omitempty"`
	Source    string   `json:"source,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
}

// ImageURLs returns the non-empty image URLs of the page in order
func (r *ImagesResponse) ImageURLs() []string {
	urls := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Image != "" {
			urls = append(urls, string(res.Image))
		}
	}
	return urls
}

// ImageURL is the image field of a result. Values that are not JSON strings
// decode to empty so one malformed entry does not fail the whole page.
type ImageURL string

func (u *ImageURL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*u = ""
		return nil
	}
	*u = ImageURL(s)
	return nil
}
