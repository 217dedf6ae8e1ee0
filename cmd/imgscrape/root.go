package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"imgscrape/pkg/config"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgscrape",
	Short: "Build image datasets from web image search",
	Long: `imgscrape collects image URLs for a search query, normalizes every image
to a 512x512 RGB JPEG and publishes the resulting directory as a versioned
dataset artifact.

Typical flow:
  imgscrape scrape "studio ghibli" -n 200
  imgscrape publish
or both at once:
  imgscrape run "studio ghibli"`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.Out = io.Discard
		}
		switch cmd.Name() {
		case "version", "help", "show", "list":
		default:
			ui.PrintLogo()
		}
	},
}

// Execute runs the command tree and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("Error: "+err.Error()))
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warning, error, critical)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress terminal output except errors")

	rootCmd.SetVersionTemplate(`imgscrape {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration with the global flags merged in. When
// validate is set the shared scrape settings must be valid.
func loadConfig(flags map[string]interface{}, validate bool) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	load := config.Resolve
	if validate {
		load = config.Load
	}
	cfg, err := load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
