package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/vmoraru/invoice-extraction-service/internal/cache"
	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/currency"
	"github.com/vmoraru/invoice-extraction-service/internal/extract"
	"github.com/vmoraru/invoice-extraction-service/internal/handler"
	"github.com/vmoraru/invoice-extraction-service/internal/importer"
	"github.com/vmoraru/invoice-extraction-service/internal/openai"
	"github.com/vmoraru/invoice-extraction-service/internal/repository"
	"github.com/vmoraru/invoice-extraction-service/internal/server"
	"github.com/vmoraru/invoice-extraction-service/internal/textgrid"
	"github.com/vmoraru/invoice-extraction-service/internal/validate"
)

func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.CreateOutputDirs(); err != nil {
		log.Fatalf("Failed to create output directories: %v", err)
	}

	logger := newLogger(cfg)

	// Build the extraction pipeline
	log.Println("Building extraction pipeline...")
	gridBuilder := textgrid.NewBuilder(textgrid.Options{
		ScaleFactor:  cfg.ScaleFactor,
		Tolerance:    cfg.Tolerance,
		OCRDPI:       cfg.OCRDPI,
		OCRLanguages: cfg.OCRLanguages,
		OCRConfig:    cfg.OCRConfig,
	}, logger)
	llmClient := openai.NewClient(cfg, logger)
	validator := validate.NewValidator(cfg.NormalizedCurrencies(), logger)
	extractCache := cache.NewExtractCache(cfg.ExtractCacheTTL, cfg.ExtractCacheMaxEntries)
	pipeline := extract.NewPipeline(cfg, gridBuilder, llmClient, validator, extractCache, logger)

	// Initialize the import repository
	log.Println("Initializing repository...")
	var repo repository.ProductRepository
	if cfg.DatabaseURL != "" {
		pgRepo, err := repository.NewPostgresRepository(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pgRepo.Close()
		repo = pgRepo
	} else {
		log.Println("No DATABASE_URL configured, using in-memory repository")
		repo = repository.NewMemoryRepository()
	}

	importService := importer.NewService(repo, cfg, logger)

	handlers := server.Handlers{
		Extract:  handler.NewExtractHandler(pipeline, cfg, logger),
		Import:   handler.NewImportHandler(importService, cfg, logger),
		Currency: handler.NewCurrencyHandler(currency.NewClient()),
	}

	// Create and start the server (blocking call)
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, handlers, logger)

	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// newLogger builds the application slog logger from configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "pretty" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
