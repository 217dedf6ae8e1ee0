package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/models"
)

// DefaultTimeout bounds each image request
const DefaultTimeout = 10 * time.Second

// ImageFetcher retrieves raw image bytes
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// ImageStorage persists a normalized image under its list index
type ImageStorage interface {
	SaveImage(index int, r io.Reader) (string, int64, error)
}

// Downloader fetches, normalizes and stores images one at a time
type Downloader struct {
	fetcher ImageFetcher
	storage ImageStorage
	timeout time.Duration
	size    int
	quality int
	logger  logger.Logger
}

// Option configures a Downloader
type Option func(*Downloader)

// WithTimeout sets the per-image request timeout
func WithTimeout(d time.Duration) Option {
	return func(dl *Downloader) {
		if d > 0 {
			dl.timeout = d
		}
	}
}

// WithSize overrides the output edge length
func WithSize(px int) Option {
	return func(dl *Downloader) {
		if px > 0 {
			dl.size = px
		}
	}
}

// WithQuality overrides the JPEG quality
func WithQuality(q int) Option {
	return func(dl *Downloader) {
		if q > 0 && q <= 100 {
			dl.quality = q
		}
	}
}

// New creates a sequential downloader
func New(fetcher ImageFetcher, storage ImageStorage, log logger.Logger, opts ...Option) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}

	d := &Downloader{
		fetcher: fetcher,
		storage: storage,
		timeout: DefaultTimeout,
		size:    DefaultSize,
		quality: DefaultQuality,
		logger:  log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download processes urls in order and returns one outcome per processed URL.
// A failing image is logged and skipped; its index is not reused, so the
// saved files may have gaps in their numbering. Only cancellation of ctx
// stops the loop early.
func (d *Downloader) Download(ctx context.Context, urls []string) []models.DownloadOutcome {
	outcomes := make([]models.DownloadOutcome, 0, len(urls))
	saved := 0

	for i, url := range urls {
		if ctx.Err() != nil {
			d.logger.WithFields(map[string]interface{}{
				"processed": i,
				"total":     len(urls),
			}).Warn("Download cancelled")
			break
		}

		outcome := d.downloadOne(ctx, i, url)
		outcomes = append(outcomes, outcome)

		if outcome.Saved() {
			saved++
			logger.LogImageSaved(d.logger, i, outcome.Path, outcome.Duration)
		}
		d.logger.WithFields(map[string]interface{}{
			"index": i,
			"saved": saved,
			"total": len(urls),
		}).Info(fmt.Sprintf("Downloaded %d/%d images", saved, len(urls)))
	}

	d.logger.WithField("saved", saved).Info(fmt.Sprintf("Downloaded %d images", saved))
	return outcomes
}

func (d *Downloader) downloadOne(ctx context.Context, index int, url string) models.DownloadOutcome {
	start := time.Now()
	outcome := models.DownloadOutcome{Index: index, URL: url}

	path, n, err := d.process(ctx, index, url)
	outcome.Duration = time.Since(start)

	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Reason = err.Error()
		logger.LogImageFailed(d.logger, index, url, err)
		return outcome
	}

	outcome.Status = models.StatusSaved
	outcome.Path = path
	outcome.Bytes = n
	return outcome
}

func (d *Downloader) process(ctx context.Context, index int, url string) (string, int64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	data, err := d.fetcher.FetchImage(reqCtx, url)
	if err != nil {
		return "", 0, err
	}

	encoded, err := Normalize(data, d.size, d.quality)
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrorTypeImageDecode, err, "image %d", index)
	}

	path, n, err := d.storage.SaveImage(index, bytes.NewReader(encoded))
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrorTypeImageWrite, err, "image %d", index)
	}

	return path, n, nil
}
