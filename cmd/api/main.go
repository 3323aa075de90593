package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"easyads/internal/assets"
	"easyads/internal/compliance"
	"easyads/internal/http/handlers"
	"easyads/internal/http/httpapi"
	"easyads/internal/infra"
	"easyads/internal/jobs"
	"easyads/internal/pipeline"
	"easyads/internal/providers/atlas"
	"easyads/internal/providers/openai"
	"easyads/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.OutputsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare outputs directory")
	}

	imageClient := atlas.NewClient(atlas.Options{
		APIKey:            cfg.AtlasAPIKey,
		BaseURL:           cfg.AtlasBaseURL,
		Model:             cfg.AtlasModel,
		MaxRetries:        cfg.AtlasMaxRetries,
		StrictAspectRatio: cfg.AtlasStrictRatio,
		Logger:            &logger,
	})
	textClient, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build text client")
	}
	visionClient, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIVisionModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build vision client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobStore := jobs.NewStore()
	orchestrator := &pipeline.Orchestrator{
		Jobs:          jobStore,
		Text:          textClient,
		Images:        imageClient,
		Store:         store,
		Assets:        assets.NewLoader(cfg.AssetsDir),
		Logger:        logger,
		AspectRatios:  cfg.AspectRatios,
		PublicBaseURL: cfg.OutputsBaseURL,
	}
	runner := pipeline.NewRunner(ctx, int64(cfg.MaxConcurrentJobs), logger)

	app := &handlers.App{
		Logger:       logger,
		Jobs:         jobStore,
		Orchestrator: orchestrator,
		Runner:       runner,
		Checker:      compliance.NewBrandChecker(visionClient),
		Store:        store,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		OutputsDir:      store.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	runner.Wait()
	logger.Info().Msg("server stopped")
}
