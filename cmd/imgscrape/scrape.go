package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"imgscrape/pkg/config"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/models"
	"imgscrape/pkg/scraper"
	"imgscrape/pkg/ui"
)

var (
	// Scrape command flags
	numImages int
	outputDir string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [query...]",
	Short: "Download search images into the output directory",
	Long: `Search for images matching the query, collect up to --num-images URLs and
save each image as a 512x512 RGB JPEG named <prefix>_NNNN.jpg.

The query comes from the arguments, IMGSCRAPE_QUERY or scraper.query in the
config file. A missing search token or an empty result set is not an error:
the run finishes and reports zero images.`,
	Example: `  # Use the query from config/config.yaml
  imgscrape scrape

  # Override query, count and output directory
  imgscrape scrape studio ghibli -n 50 -o data/ghibli`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(scrapeFlags(args), true)
		if err != nil {
			return err
		}
		_, err = runScrape(cmd.Context(), cfg)
		return err
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd)
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&numImages, "num-images", "n", -1, "number of images to collect (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
}

func scrapeFlags(args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		flags["query"] = q
	}
	if numImages >= 0 {
		flags["num-images"] = numImages
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	return flags
}

func runScrape(ctx context.Context, cfg *config.Config) (*models.RunSummary, error) {
	ui.PrintInfo("Query", cfg.Scraper.Query)
	ui.PrintInfo("Target", ui.Bar(0, cfg.Scraper.NumImages))
	ui.PrintHighlight("[SEARCHING]")

	log := logger.GetLogger()
	s := scraper.New(cfg, log)
	s.OnStateChange(func(from, to scraper.State) {
		log.DebugWithFields("State change", map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		})
	})

	summary, err := s.Run(ctx)
	if err != nil {
		log.WithError(err).Error("Scrape failed")
		return nil, err
	}

	ui.PrintSummary(summary)
	if ctx.Err() != nil {
		ui.PrintWarning("Run interrupted")
	}
	return summary, nil
}
