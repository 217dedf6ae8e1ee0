package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"imgscrape/pkg/errors"
	"imgscrape/pkg/logger"
)

// DefaultWandbBinary is looked up on PATH when no binary is configured
const DefaultWandbBinary = "wandb"

// outputTailLimit caps how much CLI output is kept in error messages
const outputTailLimit = 2000

// commandRunner runs an external command and returns its combined output
type commandRunner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.Bytes(), err
}

// WandbPublisher uploads through the wandb CLI. The CLI creates the run,
// uploads the directory as one artifact version and finishes the run.
type WandbPublisher struct {
	binary string
	apiKey string
	logger logger.Logger
	run    commandRunner
}

// NewWandbPublisher creates a publisher that shells out to binary
func NewWandbPublisher(binary, apiKey string, log logger.Logger) *WandbPublisher {
	if binary == "" {
		binary = DefaultWandbBinary
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &WandbPublisher{binary: binary, apiKey: apiKey, logger: log, run: execRunner}
}

// Args returns the CLI arguments for req
func (p *WandbPublisher) Args(req Request) []string {
	return []string{
		"artifact", "put",
		"--name", req.Project + "/" + req.Name,
		"--type", req.Type,
		req.Dir,
	}
}

// Publish implements Publisher
func (p *WandbPublisher) Publish(ctx context.Context, req Request) (*Result, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	files, err := listFiles(req.Dir)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += info.Size()
		}
	}

	runID := uuid.NewString()
	env := append(os.Environ(),
		"WANDB_PROJECT="+req.Project,
		"WANDB_JOB_TYPE="+req.JobType,
		"WANDB_RUN_ID="+runID,
		"WANDB_SILENT=true",
	)
	if p.apiKey != "" {
		env = append(env, "WANDB_API_KEY="+p.apiKey)
	}

	log := p.logger.WithFields(map[string]interface{}{
		"artifact": req.Project + "/" + req.Name,
		"files":    len(files),
		"run_id":   runID,
	})
	log.Info("Uploading artifact")

	start := time.Now()
	out, err := p.run(ctx, env, p.binary, p.Args(req)...)
	if err != nil {
		tail := strings.TrimSpace(string(out))
		if len(tail) > outputTailLimit {
			tail = tail[len(tail)-outputTailLimit:]
		}
		log.WithError(err).ErrorWithFields("wandb upload failed", map[string]interface{}{
			"output": tail,
		})
		return nil, errors.Wrap(errors.ErrorTypePublish, err, "%s artifact put: %s", p.binary, tail)
	}

	log.WithField("duration", time.Since(start)).Info("Artifact uploaded")

	return &Result{
		Backend:  "wandb",
		Ref:      fmt.Sprintf("%s/%s:latest", req.Project, req.Name),
		Version:  "latest",
		RunID:    runID,
		Files:    len(files),
		Bytes:    total,
		Location: req.Dir,
	}, nil
}
