package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is the desktop browser string the search backend expects
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/115.0.0.0 Safari/537.36"

// Config holds all configuration options for a scrape and publish run
type Config struct {
	// What to search for and where to put it
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Search backend endpoint and identity
	Search SearchConfig `yaml:"search" json:"search"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Experiment-tracking project and artifact naming
	Wandb WandbConfig `yaml:"wandb" json:"wandb"`

	// Artifact publishing backend
	Publish PublishConfig `yaml:"publish" json:"publish"`
}

// ScraperConfig holds the query and output settings
type ScraperConfig struct {
	Query           string        `yaml:"query" json:"query"`
	NumImages       int           `yaml:"num_images" json:"num_images"`
	OutputDir       string        `yaml:"output_dir" json:"output_dir"`
	FilePrefix      string        `yaml:"file_prefix" json:"file_prefix"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	PageDelay       time.Duration `yaml:"page_delay" json:"page_delay"`
}

// SearchConfig holds search backend settings
type SearchConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// WandbConfig holds the tracking project and artifact naming
type WandbConfig struct {
	Project string          `yaml:"project" json:"project"`
	Data    WandbDataConfig `yaml:"data" json:"data"`
}

// WandbDataConfig describes the dataset artifact
type WandbDataConfig struct {
	ArtifactName string `yaml:"artifact_name" json:"artifact_name"`
	ArtifactType string `yaml:"artifact_type" json:"artifact_type"`
	JobType      string `yaml:"job_type" json:"job_type"`
}

// PublishConfig selects and configures the artifact backend
type PublishConfig struct {
	Backend     string `yaml:"backend" json:"backend"`
	RegistryDir string `yaml:"registry_dir" json:"registry_dir"`
	Profile     string `yaml:"profile" json:"profile"`
	WandbBinary string `yaml:"wandb_binary" json:"wandb_binary"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			NumImages:       100,
			OutputDir:       "data/raw",
			FilePrefix:      "image",
			DownloadTimeout: 10 * time.Second,
			PageDelay:       500 * time.Millisecond,
		},
		Search: SearchConfig{
			BaseURL:   "https://duckduckgo.com",
			UserAgent: DefaultUserAgent,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Wandb: WandbConfig{
			Data: WandbDataConfig{
				ArtifactType: "dataset",
				JobType:      "upload-dataset",
			},
		},
		Publish: PublishConfig{
			Backend:     "wandb",
			RegistryDir: "./artifacts",
			Profile:     "default",
			WandbBinary: "wandb",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if query := os.Getenv("IMGSCRAPE_QUERY"); query != "" {
		c.Scraper.Query = query
	}

	if n := os.Getenv("IMGSCRAPE_NUM_IMAGES"); n != "" {
		val, err := strconv.Atoi(n)
		if err != nil {
			return fmt.Errorf("invalid IMGSCRAPE_NUM_IMAGES %q: %w", n, err)
		}
		c.Scraper.NumImages = val
	}

	if outputDir := os.Getenv("IMGSCRAPE_OUTPUT_DIR"); outputDir != "" {
		c.Scraper.OutputDir = outputDir
	}

	if logLevel := os.Getenv("IMGSCRAPE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if backend := os.Getenv("IMGSCRAPE_PUBLISH_BACKEND"); backend != "" {
		c.Publish.Backend = backend
	}

	if project := os.Getenv("WANDB_PROJECT"); project != "" {
		c.Wandb.Project = project
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// SearchPaths lists the config file locations checked when no path is given,
// in order of precedence.
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		filepath.Join("config", "config.yaml"),
		filepath.Join("config", "config.yml"),
		"imgscrape.yaml",
		".imgscrape.yaml",
		filepath.Join(home, ".config", "imgscrape", "config.yaml"),
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "critical": true, "fatal": true,
}

// Validate checks the settings every command needs
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Scraper.Query) == "" {
		errs = append(errs, errors.New("scraper.query is required"))
	}
	if c.Scraper.NumImages < 0 {
		errs = append(errs, errors.New("scraper.num_images cannot be negative"))
	}
	if c.Scraper.OutputDir == "" {
		errs = append(errs, errors.New("scraper.output_dir is required"))
	}
	if c.Scraper.FilePrefix == "" || strings.ContainsAny(c.Scraper.FilePrefix, `/\`) {
		errs = append(errs, errors.New("scraper.file_prefix must be a non-empty file name prefix"))
	}
	if c.Scraper.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("scraper.download_timeout must be positive"))
	}
	if c.Scraper.PageDelay < 0 {
		errs = append(errs, errors.New("scraper.page_delay cannot be negative"))
	}

	if !strings.HasPrefix(c.Search.BaseURL, "http://") && !strings.HasPrefix(c.Search.BaseURL, "https://") {
		errs = append(errs, errors.New("search.base_url must be an http(s) URL"))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidatePublish checks the settings the publish step needs
func (c *Config) ValidatePublish() error {
	var errs []error

	if c.Scraper.OutputDir == "" {
		errs = append(errs, errors.New("scraper.output_dir is required"))
	}
	if c.Wandb.Project == "" {
		errs = append(errs, errors.New("wandb.project is required"))
	}
	if c.Wandb.Data.ArtifactName == "" {
		errs = append(errs, errors.New("wandb.data.artifact_name is required"))
	}

	switch strings.ToLower(c.Publish.Backend) {
	case "wandb":
	case "local":
		if c.Publish.RegistryDir == "" {
			errs = append(errs, errors.New("publish.registry_dir is required for the local backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown publish backend: %q", c.Publish.Backend))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if query, ok := flags["query"].(string); ok && query != "" {
		c.Scraper.Query = query
	}
	if n, ok := flags["num-images"].(int); ok && n >= 0 {
		c.Scraper.NumImages = n
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Scraper.OutputDir = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if backend, ok := flags["backend"].(string); ok && backend != "" {
		c.Publish.Backend = backend
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults.
// Only the shared settings are validated here; callers that publish also
// call ValidatePublish.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Resolve merges every source like Load but skips validation. Commands that
// never search (publish, config show) use it.
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imgscrape.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}
