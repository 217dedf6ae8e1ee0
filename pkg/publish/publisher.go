package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imgscrape/pkg/config"
	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"
)

const (
	DefaultType    = "dataset"
	DefaultJobType = "upload-dataset"
)

// Request describes a folder to publish as a versioned artifact
type Request struct {
	Dir     string
	Name    string
	Project string
	Type    string
	JobType string
}

// Result reports where an artifact ended up
type Result struct {
	Backend  string
	Ref      string
	Version  string
	RunID    string
	Files    int
	Bytes    int64
	Location string
}

// Publisher uploads a directory as an artifact
type Publisher interface {
	Publish(ctx context.Context, req Request) (*Result, error)
}

// RequestFromConfig builds the publish request for the configured output folder
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Dir:     cfg.Scraper.OutputDir,
		Name:    cfg.Wandb.Data.ArtifactName,
		Project: cfg.Wandb.Project,
		Type:    cfg.Wandb.Data.ArtifactType,
		JobType: cfg.Wandb.Data.JobType,
	}
}

// New returns the backend selected by cfg.Publish.Backend. apiKey is only
// used by the wandb backend.
func New(cfg *config.Config, apiKey string, log logger.Logger) (Publisher, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	switch strings.ToLower(cfg.Publish.Backend) {
	case "wandb", "":
		return NewWandbPublisher(cfg.Publish.WandbBinary, apiKey, log), nil
	case "local":
		return NewLocalPublisher(cfg.Publish.RegistryDir, log), nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, "unknown publish backend %q", cfg.Publish.Backend)
	}
}

// normalize fills defaults and checks the required fields
func (r Request) normalize() (Request, error) {
	if r.Type == "" {
		r.Type = DefaultType
	}
	if r.JobType == "" {
		r.JobType = DefaultJobType
	}
	if r.Project == "" {
		return r, errors.New(errors.ErrorTypeConfig, "project is required")
	}
	if r.Name == "" {
		return r, errors.New(errors.ErrorTypeConfig, "artifact name is required")
	}
	if strings.ContainsAny(r.Name, `/\:`) || strings.ContainsAny(r.Project, `/\:`) {
		return r, errors.New(errors.ErrorTypeConfig, "project and artifact name must not contain '/', '\\' or ':'")
	}
	return r, nil
}

// listFiles returns the regular files directly inside dir, sorted by name.
// A missing or empty directory is a not_found error.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrorTypeNotFound, err, "directory %s does not exist", dir)
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrorTypeNotFound, "directory %s has no files to publish", dir)
	}

	sort.Strings(files)
	return files, nil
}
