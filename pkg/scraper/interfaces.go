package scraper

import (
	"context"

	"imgscrape/pkg/models"
)

// SearchClient finds image URLs for a query
type SearchClient interface {
	FetchToken(ctx context.Context, query string) (string, error)
	CollectImageURLs(ctx context.Context, query, token string, target int) []string
}

// ImageDownloader turns a URL list into stored images
type ImageDownloader interface {
	Download(ctx context.Context, urls []string) []models.DownloadOutcome
}

// DownloaderFactory builds the downloader once there is something to download.
// The output directory is created by the factory, not before.
type DownloaderFactory func() (ImageDownloader, error)
