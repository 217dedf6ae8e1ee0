package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"
)

// LocalPublisher keeps versioned artifact copies under a registry directory:
//
//	<root>/<project>/<name>/v0/...
//	<root>/<project>/<name>/v1/...
//	<root>/<project>/<name>/latest   (holds "v1")
type LocalPublisher struct {
	root   string
	logger logger.Logger
	now    func() time.Time
}

// NewLocalPublisher creates a registry rooted at root
func NewLocalPublisher(root string, log logger.Logger) *LocalPublisher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LocalPublisher{root: root, logger: log, now: time.Now}
}

// Publish copies req.Dir into the next version slot and writes its manifest
func (p *LocalPublisher) Publish(ctx context.Context, req Request) (*Result, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	files, err := listFiles(req.Dir)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(p.root, req.Project, req.Name)
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to create registry directory")
	}

	version, err := nextVersion(base)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to scan registry")
	}

	staging, err := os.MkdirTemp(base, ".staging-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	manifest := &Manifest{
		RunID:     uuid.NewString(),
		Project:   req.Project,
		Name:      req.Name,
		Version:   version,
		Type:      req.Type,
		JobType:   req.JobType,
		CreatedAt: p.now().UTC(),
	}

	log := p.logger.WithFields(map[string]interface{}{
		"artifact": req.Project + "/" + req.Name,
		"version":  version,
	})

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := copyFile(src, filepath.Join(staging, filepath.Base(src)))
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to copy %s", src)
		}
		manifest.Files = append(manifest.Files, entry)
		manifest.TotalBytes += entry.Size
	}

	if err := manifest.Save(staging); err != nil {
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to save manifest")
	}

	target := filepath.Join(base, version)
	if err := os.Rename(staging, target); err != nil {
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "failed to finalize %s", version)
	}
	if err := os.WriteFile(filepath.Join(base, "latest"), []byte(version+"\n"), 0644); err != nil {
		log.WithError(err).Warn("Failed to update latest pointer")
	}

	log.WithFields(map[string]interface{}{
		"files": len(manifest.Files),
		"bytes": manifest.TotalBytes,
	}).Info("Artifact published to local registry")

	return &Result{
		Backend:  "local",
		Ref:      fmt.Sprintf("%s/%s:%s", req.Project, req.Name, version),
		Version:  version,
		RunID:    manifest.RunID,
		Files:    len(manifest.Files),
		Bytes:    manifest.TotalBytes,
		Location: target,
	}, nil
}

// nextVersion returns v0 for an empty artifact and v<max+1> otherwise
func nextVersion(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", err
	}

	next := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "v") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "v"))
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return fmt.Sprintf("v%d", next), nil
}

// copyFile copies src to dst, hashing the bytes on the way
func copyFile(src, dst string) (FileEntry, error) {
	in, err := os.Open(src)
	if err != nil {
		return FileEntry{}, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return FileEntry{}, err
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	closeErr := out.Close()
	if err != nil {
		return FileEntry{}, err
	}
	if closeErr != nil {
		return FileEntry{}, closeErr
	}

	return FileEntry{
		Name:   filepath.Base(src),
		Size:   n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
