package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv keeps the developer's environment out of config tests
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"IMGSCRAPE_QUERY", "IMGSCRAPE_NUM_IMAGES", "IMGSCRAPE_OUTPUT_DIR",
		"IMGSCRAPE_LOG_LEVEL", "IMGSCRAPE_PUBLISH_BACKEND", "WANDB_PROJECT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scraper.NumImages != 100 {
		t.Errorf("Expected default num_images to be 100, got %d", config.Scraper.NumImages)
	}

	if config.Scraper.DownloadTimeout != 10*time.Second {
		t.Errorf("Expected default download timeout to be 10s, got %s", config.Scraper.DownloadTimeout)
	}

	if config.Scraper.PageDelay != 500*time.Millisecond {
		t.Errorf("Expected default page delay to be 500ms, got %s", config.Scraper.PageDelay)
	}

	if config.Logging.Level != "INFO" {
		t.Errorf("Expected default log level to be INFO, got %s", config.Logging.Level)
	}

	assert.Equal(t, "dataset", config.Wandb.Data.ArtifactType)
	assert.Equal(t, "upload-dataset", config.Wandb.Data.JobType)
	assert.Equal(t, DefaultUserAgent, config.Search.UserAgent)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  query: "studio ghibli"
  num_images: 25
  output_dir: /tmp/ghibli
  download_timeout: 3s
logging:
  level: DEBUG
wandb:
  project: anime-gen
  data:
    artifact_name: ghibli-raw
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "studio ghibli", config.Scraper.Query)
	assert.Equal(t, 25, config.Scraper.NumImages)
	assert.Equal(t, "/tmp/ghibli", config.Scraper.OutputDir)
	assert.Equal(t, 3*time.Second, config.Scraper.DownloadTimeout)
	assert.Equal(t, "DEBUG", config.Logging.Level)
	assert.Equal(t, "anime-gen", config.Wandb.Project)
	assert.Equal(t, "ghibli-raw", config.Wandb.Data.ArtifactName)

	// Keys absent from the file keep their defaults
	assert.Equal(t, "image", config.Scraper.FilePrefix)
	assert.Equal(t, 500*time.Millisecond, config.Scraper.PageDelay)
	assert.Equal(t, "dataset", config.Wandb.Data.ArtifactType)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scraper: [unclosed"), 0644))
	err = config.LoadFromFile(bad)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("IMGSCRAPE_QUERY", "sunsets")
	t.Setenv("IMGSCRAPE_NUM_IMAGES", "7")
	t.Setenv("IMGSCRAPE_OUTPUT_DIR", "/tmp/sunsets")
	t.Setenv("IMGSCRAPE_LOG_LEVEL", "debug")
	t.Setenv("IMGSCRAPE_PUBLISH_BACKEND", "local")
	t.Setenv("WANDB_PROJECT", "skies")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "sunsets", config.Scraper.Query)
	assert.Equal(t, 7, config.Scraper.NumImages)
	assert.Equal(t, "/tmp/sunsets", config.Scraper.OutputDir)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "local", config.Publish.Backend)
	assert.Equal(t, "skies", config.Wandb.Project)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	isolateEnv(t)
	t.Setenv("IMGSCRAPE_NUM_IMAGES", "many")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Scraper.Query = "cats"
		return c
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantError: false},
		{name: "zero images is allowed", mutate: func(c *Config) { c.Scraper.NumImages = 0 }, wantError: false},
		{name: "missing query", mutate: func(c *Config) { c.Scraper.Query = "  " }, wantError: true},
		{name: "negative num_images", mutate: func(c *Config) { c.Scraper.NumImages = -1 }, wantError: true},
		{name: "missing output dir", mutate: func(c *Config) { c.Scraper.OutputDir = "" }, wantError: true},
		{name: "prefix with separator", mutate: func(c *Config) { c.Scraper.FilePrefix = "a/b" }, wantError: true},
		{name: "zero download timeout", mutate: func(c *Config) { c.Scraper.DownloadTimeout = 0 }, wantError: true},
		{name: "non-http base url", mutate: func(c *Config) { c.Search.BaseURL = "ftp://example.com" }, wantError: true},
		{name: "python style level", mutate: func(c *Config) { c.Logging.Level = "WARNING" }, wantError: false},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidatePublish(t *testing.T) {
	c := DefaultConfig()
	err := c.ValidatePublish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wandb.project is required")
	assert.Contains(t, err.Error(), "wandb.data.artifact_name is required")

	c.Wandb.Project = "p"
	c.Wandb.Data.ArtifactName = "a"
	assert.NoError(t, c.ValidatePublish())

	c.Publish.Backend = "s3"
	assert.ErrorContains(t, c.ValidatePublish(), "unknown publish backend")

	c.Publish.Backend = "local"
	c.Publish.RegistryDir = ""
	assert.ErrorContains(t, c.ValidatePublish(), "registry_dir")
}

func TestLoadPrecedence(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scraper:\n  query: from-file\n  num_images: 10\n  output_dir: file-dir\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("IMGSCRAPE_NUM_IMAGES", "20")

	config, err := Load(path, map[string]interface{}{
		"output": "flag-dir",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.Scraper.Query)
	assert.Equal(t, 20, config.Scraper.NumImages)
	assert.Equal(t, "flag-dir", config.Scraper.OutputDir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scraper:\n  num_images: 5\n"), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraper.query is required")
}

func TestResolveSkipsValidation(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wandb:\n  project: proj\n"), 0644))

	config, err := Resolve(path, map[string]interface{}{"backend": "local"})
	require.NoError(t, err)
	assert.Equal(t, "", config.Scraper.Query)
	assert.Equal(t, "proj", config.Wandb.Project)
	assert.Equal(t, "local", config.Publish.Backend)
	assert.Error(t, config.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Scraper.Query = "mountains"
	original.Wandb.Project = "peaks"
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)
}
