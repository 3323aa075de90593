// Command pipeline runs a single campaign brief end to end and exits.
// Useful for batch generation and CI without the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"easyads/internal/assets"
	"easyads/internal/campaign"
	"easyads/internal/infra"
	"easyads/internal/jobs"
	"easyads/internal/pipeline"
	"easyads/internal/providers/atlas"
	"easyads/internal/providers/openai"
	"easyads/internal/storage"
)

func main() {
	briefPath := flag.String("brief", "examples/campaign.json", "path to the campaign brief (json or yaml)")
	outputsDir := flag.String("outputs", "", "override the outputs directory")
	assetsDir := flag.String("assets", "", "override the assets directory")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outputsDir != "" {
		cfg.OutputsDir = *outputsDir
	}
	if *assetsDir != "" {
		cfg.AssetsDir = *assetsDir
	}
	logger := infra.NewLogger(cfg.AppEnv)

	brief, err := campaign.LoadBrief(*briefPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *briefPath).Msg("failed to load campaign brief")
	}

	store, err := storage.NewFileStore(cfg.OutputsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare outputs directory")
	}

	textClient, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build text client")
	}

	jobStore := jobs.NewStore()
	orchestrator := &pipeline.Orchestrator{
		Jobs: jobStore,
		Text: textClient,
		Images: atlas.NewClient(atlas.Options{
			APIKey:            cfg.AtlasAPIKey,
			BaseURL:           cfg.AtlasBaseURL,
			Model:             cfg.AtlasModel,
			MaxRetries:        cfg.AtlasMaxRetries,
			StrictAspectRatio: cfg.AtlasStrictRatio,
			Logger:            &logger,
		}),
		Store:         store,
		Assets:        assets.NewLoader(cfg.AssetsDir),
		Logger:        logger,
		AspectRatios:  cfg.AspectRatios,
		PublicBaseURL: cfg.OutputsBaseURL,
	}

	jobID := jobStore.Create()
	if err := orchestrator.Run(context.Background(), jobID, brief); err != nil {
		logger.Error().Err(err).Msg("campaign failed")
		os.Exit(1)
	}

	snap, err := jobStore.Get(jobID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read job result")
	}
	logger.Info().
		Str("brand_name", snap.Result.BrandName).
		Str("output_dir", snap.Result.OutputDir).
		Int("images", len(snap.Result.Images)).
		Msg("campaign completed")
	for _, img := range snap.Result.Images {
		fmt.Printf("%s\t%s\n", img.AspectRatio, img.Path)
	}
}
