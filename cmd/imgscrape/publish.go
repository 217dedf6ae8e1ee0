package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"imgscrape/pkg/auth"
	"imgscrape/pkg/config"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/publish"
	"imgscrape/pkg/ui"
)

var (
	// Publish command flags
	backend      string
	artifactName string
	project      string
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the output directory as a dataset artifact",
	Long: `Upload the scraped output directory as one dataset artifact version.

Backends:
  wandb   runs 'wandb artifact put' with the API key of the selected profile
  local   copies into <registry_dir>/<project>/<name>/vN with a manifest`,
	Example: `  imgscrape publish
  imgscrape publish --backend local --name raw-images --project anime`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := publishFlags()
		if outputDir != "" {
			flags["output"] = outputDir
		}
		cfg, err := loadConfig(flags, false)
		if err != nil {
			return err
		}
		applyPublishOverrides(cfg)
		return runPublish(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	addPublishFlags(publishCmd)
	publishCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to publish (default scraper.output_dir)")
}

func addPublishFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backend, "backend", "", "publish backend: wandb or local")
	cmd.Flags().StringVar(&artifactName, "name", "", "artifact name (default wandb.data.artifact_name)")
	cmd.Flags().StringVar(&project, "project", "", "tracking project (default wandb.project)")
	cmd.Flags().StringVar(&profileName, "profile", "", "credential profile (default publish.profile)")
}

func publishFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if backend != "" {
		flags["backend"] = backend
	}
	return flags
}

func applyPublishOverrides(cfg *config.Config) {
	if artifactName != "" {
		cfg.Wandb.Data.ArtifactName = artifactName
	}
	if project != "" {
		cfg.Wandb.Project = project
	}
	if profileName != "" {
		cfg.Publish.Profile = profileName
	}
}

func runPublish(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidatePublish(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log := logger.GetLogger()

	var apiKey string
	if strings.EqualFold(cfg.Publish.Backend, "wandb") {
		apiKey = resolveAPIKey(cfg.Publish.Profile, log)
	}

	p, err := publish.New(cfg, apiKey, log)
	if err != nil {
		return err
	}

	req := publish.RequestFromConfig(cfg)
	ui.PrintHighlight("[PUBLISHING]")
	ui.PrintInfo("Directory", req.Dir)
	ui.PrintInfo("Artifact", req.Project+"/"+req.Name)

	res, err := p.Publish(ctx, req)
	if err != nil {
		return err
	}

	ui.PrintSuccess("[ARTIFACT PUBLISHED]")
	ui.PrintInfo("Reference", res.Ref)
	ui.PrintInfo("Files", fmt.Sprintf("%d (%d bytes)", res.Files, res.Bytes))
	ui.PrintInfo("Run ID", res.RunID)
	if res.Location != req.Dir {
		ui.PrintInfo("Location", res.Location)
	}
	return nil
}

// resolveAPIKey looks up the stored key. A missing key is left to the wandb
// CLI, which may already be logged in.
func resolveAPIKey(profile string, log logger.Logger) string {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("Credential manager unavailable")
		return ""
	}

	key, err := manager.APIKey(profile)
	if err != nil {
		log.WithField("profile", profile).Warn("No stored API key, relying on existing wandb login")
		return ""
	}
	return key
}
