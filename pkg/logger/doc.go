// Package logger provides structured logging for imgscrape.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger explicitly and tests can swap in a TestLogger that
// captures messages.
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{Level: "INFO", File: "logs/imgscrape.log"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//
//	log := logger.GetLogger().WithField("component", "collector")
//	log.Info("Fetching search token")
//	log.WithError(err).Warn("Failed to download image 12")
//
// Levels accept both zerolog names (debug, info, warn, error, fatal) and the
// DEBUG/INFO/WARNING/ERROR/CRITICAL spelling used in config files.
// When File is set, records are written to the console and appended to the
// file as JSON lines.
package logger
