// Command invproc extracts structured invoice data from a PDF on the
// command line, using the same pipeline as the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmoraru/invoice-extraction-service/internal/cache"
	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/extract"
	"github.com/vmoraru/invoice-extraction-service/internal/openai"
	"github.com/vmoraru/invoice-extraction-service/internal/textgrid"
	"github.com/vmoraru/invoice-extraction-service/internal/validate"
)

func main() {
	var (
		outputPath = flag.String("output", "", "write the extracted JSON to this file instead of stdout")
		languages  = flag.String("lang", "", "override OCR language codes (e.g. ron+eng)")
		debug      = flag.Bool("debug", false, "also write the intermediate text grid next to the output")
		retries    = flag.Int("retry", 1, "run the extraction N times and check result consistency")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
		mock       = flag.Bool("mock", false, "use the mock LLM client (no API key needed)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <invoice.pdf>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	pdfPath := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		// Mock mode must work without any environment at all.
		if !*mock {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = mockConfig()
	}
	if *mock {
		cfg.Mock = true
	}
	if *languages != "" {
		cfg.OCRLanguages = *languages
	}
	// The CLI processes one file per invocation; caching adds nothing.
	cfg.ExtractCacheEnabled = false

	logger := newLogger(*verbose)
	pipeline := buildPipeline(cfg, logger)

	results := make([][]byte, 0, *retries)
	for run := 0; run < *retries; run++ {
		result, err := pipeline.ProcessFile(context.Background(), pdfPath, "")
		if err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}

		encoded, err := json.MarshalIndent(result.Invoice, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		results = append(results, encoded)
	}

	if *retries > 1 {
		reportConsistency(results)
	}

	if *debug {
		writeDebugGrid(cfg, logger, pdfPath, *outputPath)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, results[0], 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Wrote %s\n", *outputPath)
		return
	}
	fmt.Println(string(results[0]))
}

// buildPipeline assembles the extraction pipeline for one-shot CLI use.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *extract.Pipeline {
	gridBuilder := textgrid.NewBuilder(textgrid.Options{
		ScaleFactor:  cfg.ScaleFactor,
		Tolerance:    cfg.Tolerance,
		OCRDPI:       cfg.OCRDPI,
		OCRLanguages: cfg.OCRLanguages,
		OCRConfig:    cfg.OCRConfig,
	}, logger)
	llmClient := openai.NewClient(cfg, logger)
	validator := validate.NewValidator(cfg.NormalizedCurrencies(), logger)
	store := cache.NewExtractCache(cfg.ExtractCacheTTL, cfg.ExtractCacheMaxEntries)

	return extract.NewPipeline(cfg, gridBuilder, llmClient, validator, store, logger)
}

// reportConsistency compares repeated extraction runs byte for byte. LLM
// output at temperature 0 should be stable; divergence is worth surfacing.
func reportConsistency(results [][]byte) {
	first := string(results[0])
	consistent := true
	for i := 1; i < len(results); i++ {
		if string(results[i]) != first {
			consistent = false
			fmt.Fprintf(os.Stderr, "Run %d diverged from run 1\n", i+1)
		}
	}
	if consistent {
		fmt.Fprintf(os.Stderr, "All %d runs produced identical output\n", len(results))
	}
}

// writeDebugGrid extracts and saves the intermediate text grid so prompt
// issues can be diagnosed without the LLM in the loop.
func writeDebugGrid(cfg *config.Config, logger *slog.Logger, pdfPath, outputPath string) {
	builder := textgrid.NewBuilder(textgrid.Options{
		ScaleFactor:  cfg.ScaleFactor,
		Tolerance:    cfg.Tolerance,
		OCRDPI:       cfg.OCRDPI,
		OCRLanguages: cfg.OCRLanguages,
		OCRConfig:    cfg.OCRConfig,
	}, logger)

	grid, _, err := builder.ExtractContent(context.Background(), pdfPath)
	if err != nil {
		logger.Error("failed to extract debug grid", "error", err)
		return
	}

	gridPath := debugGridPath(pdfPath, outputPath)
	if err := os.WriteFile(gridPath, []byte(grid), 0o644); err != nil {
		logger.Error("failed to write debug grid", "path", gridPath, "error", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Wrote text grid to %s\n", gridPath)
}

func debugGridPath(pdfPath, outputPath string) string {
	base := pdfPath
	if outputPath != "" {
		base = outputPath
	}
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + ".grid.txt"
}

// mockConfig is the offline fallback configuration for --mock runs.
func mockConfig() *config.Config {
	return &config.Config{
		Mock:               true,
		Model:              "gpt-4o-mini",
		MaxTokens:          4096,
		ScaleFactor:        0.2,
		Tolerance:          3,
		OCRDPI:             150,
		OCRLanguages:       "ron+eng+rus",
		OCRConfig:          "--oem 1 --psm 6",
		AllowedCurrencies:  []string{"MDL", "EUR", "USD", "RON", "RUB"},
		FxLeiToEUR:         19.5,
		TransportRatePerKG: 1.5,
		ColumnHeaders: config.ColumnHeaders{
			Quantity:   "Cant.",
			UnitPrice:  "Pret unitar",
			TotalPrice: "Valoare incl.TVA",
		},
	}
}

// newLogger builds a text logger for interactive use; extraction progress
// goes to stderr so stdout stays parseable.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
