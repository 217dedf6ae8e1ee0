package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [query...]",
	Short: "Scrape images, then publish them",
	Long: `Run the whole pipeline: collect and normalize images, then publish the
output directory. Publish settings are checked before any request is made.
A run that saves no images skips publishing and still exits 0.`,
	Example: `  imgscrape run studio ghibli -n 100 --project anime --name raw-images`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := scrapeFlags(args)
		for k, v := range publishFlags() {
			flags[k] = v
		}

		cfg, err := loadConfig(flags, true)
		if err != nil {
			return err
		}
		applyPublishOverrides(cfg)
		if err := cfg.ValidatePublish(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		ctx := cmd.Context()
		summary, err := runScrape(ctx, cfg)
		if err != nil {
			return err
		}

		switch {
		case ctx.Err() != nil:
			logger.Warn("Interrupted, skipping publish")
			return nil
		case summary.Saved == 0:
			ui.PrintWarning("No images saved, skipping publish")
			logger.Warn("No images saved, skipping publish")
			return nil
		}

		return runPublish(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addScrapeFlags(runCmd)
	addPublishFlags(runCmd)
}
