package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tally/internal/assistant"
	"tally/internal/assistant/gemini"
	"tally/internal/backend"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/config"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	bootCtx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(bootCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	summaries := cache.NewLRU[services.Summary](cfg.SummaryCacheSize, 10*time.Minute)
	caches := cache.NewManager(logger)
	caches.Register(summaries)
	caches.Start(5 * time.Minute)

	tracker := services.NewTracker(
		services.NewExpenseService(bootCtx, res.Store, res.Notifier, logger),
		services.NewBudgetService(bootCtx, res.Store, logger),
		services.NewPreferenceService(bootCtx, res.Store, logger),
		services.WithSummaryCache(summaries),
	)

	deps := apphttp.Dependencies{
		Tracker:               tracker,
		Ready:                 res.Ready,
		ChatRequestsPerMinute: cfg.ChatRequestsPerMinute,
	}
	var gen *gemini.Generator
	if cfg.AssistantEnabled() {
		gen, err = gemini.New(bootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize assistant, continuing without chat", applog.FieldError, err)
		} else {
			deps.Assistant = assistant.NewBridge(gen, tracker, logger)
			logger.Info("Assistant enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("Assistant disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, logger)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if gen != nil {
			_ = gen.Close()
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting tally server",
		"port", cfg.Port, "backend", cfg.DataBackend,
		"notifications", res.Notifier != nil, applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
