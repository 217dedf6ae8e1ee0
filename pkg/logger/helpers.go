package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs the outcome of a search backend request
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.InfoWithFields("HTTP request returned unexpected status", fields)
	}
}

// LogPage logs one collected result page
func LogPage(l Logger, offset, pageURLs, collected, target int) {
	l.WithFields(map[string]interface{}{
		"offset":    offset,
		"page_urls": pageURLs,
		"collected": collected,
		"target":    target,
	}).Info(fmt.Sprintf("Collected %d image URLs...", collected))
}

// LogImageSaved logs a successfully written image
func LogImageSaved(l Logger, index int, path string, duration time.Duration) {
	l.WithFields(map[string]interface{}{
		"index":    index,
		"path":     path,
		"duration": duration,
	}).Debug("Image saved")
}

// LogImageFailed logs a per-image failure; the run continues
func LogImageFailed(l Logger, index int, url string, err error) {
	l.WithFields(map[string]interface{}{
		"index": index,
		"url":   url,
	}).WithError(err).Warn(fmt.Sprintf("Failed to download image %d", index))
}

// LogDownloadProgress logs how far the download phase has come
func LogDownloadProgress(l Logger, processed, total, saved int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(processed) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"processed":  processed,
		"total":      total,
		"saved":      saved,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Download progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	logger := l.WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
