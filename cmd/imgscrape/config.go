package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"imgscrape/pkg/config"
	"imgscrape/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imgscrape configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMGSCRAPE_*, WANDB_PROJECT)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created at config/config.yaml unless --config names another path.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the effective configuration.

Scrape settings must be valid. Publish settings that are missing are reported
as warnings because 'imgscrape scrape' does not need them.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# imgscrape configuration
#
# Environment overrides: IMGSCRAPE_QUERY, IMGSCRAPE_NUM_IMAGES,
# IMGSCRAPE_OUTPUT_DIR, IMGSCRAPE_LOG_LEVEL, IMGSCRAPE_PUBLISH_BACKEND,
# WANDB_PROJECT

scraper:
  # Search query (required)
  query: "studio ghibli"

  # Number of image URLs to collect; 0 collects nothing
  num_images: 100

  # Output directory, created if absent
  output_dir: data/raw

  # Files are named <file_prefix>_0000.jpg, <file_prefix>_0001.jpg, ...
  file_prefix: image

  # Per-image download timeout
  download_timeout: 10s

  # Pause after each result page before requesting the next
  page_delay: 500ms

search:
  base_url: https://duckduckgo.com
  # Leave empty for the default desktop browser string
  user_agent: ""

logging:
  # DEBUG, INFO, WARNING, ERROR or CRITICAL
  level: INFO
  # Optional log file, appended as JSON next to console output
  file: ""

wandb:
  project: my-project
  data:
    artifact_name: raw-images
    artifact_type: dataset
    job_type: upload-dataset

publish:
  # wandb or local
  backend: wandb
  # Root of the local registry
  registry_dir: ./artifacts
  # Credential profile used for the wandb backend
  profile: default
  wandb_binary: wandb
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.SearchPaths()[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Set scraper.query and wandb.project")
	fmt.Fprintln(ui.Out, "2. Run 'imgscrape config validate'")
	fmt.Fprintln(ui.Out, "3. Run 'imgscrape auth login' to store your W&B API key")
	fmt.Fprintln(ui.Out, "4. Start with 'imgscrape run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil, false)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (IMGSCRAPE_*, WANDB_PROJECT)")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "3. Configuration file: first of", config.SearchPaths())
	}
	fmt.Fprintln(ui.Out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil, false)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration has errors:")
		printJoined(err)
		return errors.New("configuration is invalid")
	}

	if err := cfg.ValidatePublish(); err != nil {
		ui.PrintWarning("Publishing is not configured:")
		printJoined(err)
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Query: %s\n", cfg.Scraper.Query)
	fmt.Fprintf(ui.Out, "  Images: %d\n", cfg.Scraper.NumImages)
	fmt.Fprintf(ui.Out, "  Output directory: %s\n", cfg.Scraper.OutputDir)
	fmt.Fprintf(ui.Out, "  Publish backend: %s\n", cfg.Publish.Backend)
	fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// printJoined lists each error of an errors.Join result on its own line
func printJoined(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(ui.Out, "  - %s\n", e)
		}
		return
	}
	fmt.Fprintf(ui.Out, "  - %s\n", err)
}
