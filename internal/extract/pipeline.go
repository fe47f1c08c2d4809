// Package extract orchestrates the full invoice extraction flow: text grid,
// LLM parsing, weighed-row normalization, validation and row enrichment,
// fronted by a content-addressed result cache.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/vmoraru/invoice-extraction-service/internal/cache"
	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/domain"
	"github.com/vmoraru/invoice-extraction-service/internal/textgrid"
	"github.com/vmoraru/invoice-extraction-service/internal/validate"
)

// Cache status values reported to the API layer.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
	CacheOff  = "off"
)

// maxConcurrentExtractions bounds simultaneous pipeline runs; each run holds
// a PDF in memory and an outstanding LLM request.
const maxConcurrentExtractions = 4

// GridExtractor produces a spatial text grid from a PDF file.
type GridExtractor interface {
	ExtractContent(ctx context.Context, filePath string) (string, textgrid.Metadata, error)
}

// Parser turns a text grid into structured invoice data.
type Parser interface {
	ParseWithLLM(ctx context.Context, textGrid string) (*domain.InvoiceData, error)
}

// Result is the complete outcome of one extraction run.
type Result struct {
	Invoice     *domain.InvoiceData `json:"invoice"`
	Extraction  textgrid.Metadata   `json:"extraction"`
	CacheStatus string              `json:"-"`
}

// Pipeline wires the extraction stages together. It is safe for concurrent
// use; identical in-flight requests are collapsed into a single run.
type Pipeline struct {
	cfg       *config.Config
	grids     GridExtractor
	parser    Parser
	validator *validate.Validator
	store     *cache.ExtractCache
	signature string
	group     singleflight.Group
	workers   chan struct{}
	logger    *slog.Logger
}

// NewPipeline builds the orchestrator. The config signature is computed once
// at construction; a restart with different settings yields a different
// signature and therefore different cache keys.
func NewPipeline(cfg *config.Config, grids GridExtractor, parser Parser, validator *validate.Validator, store *cache.ExtractCache, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:       cfg,
		grids:     grids,
		parser:    parser,
		validator: validator,
		store:     store,
		workers:   make(chan struct{}, maxConcurrentExtractions),
		logger:    logger,
	}
	// The signature is only needed for cache keys; skip the config hashing
	// entirely when caching is disabled.
	if cfg.ExtractCacheEnabled {
		p.signature = ConfigSignature(cfg)
	}
	return p
}

// ProcessFile runs the pipeline for the PDF at filePath. fileHash is the
// sha256 of the uploaded bytes and keys the cache together with the config
// signature. Failures are never cached.
func (p *Pipeline) ProcessFile(ctx context.Context, filePath, fileHash string) (*Result, error) {
	if !p.cfg.ExtractCacheEnabled || p.store == nil {
		payload, err := p.run(ctx, filePath)
		if err != nil {
			return nil, err
		}
		return decodeResult(payload, CacheOff)
	}

	p.store.Configure(p.cfg.ExtractCacheTTL, p.cfg.ExtractCacheMaxEntries)

	key := CacheKey(fileHash, p.signature)
	if payload, ok := p.store.Get(key); ok {
		p.logger.Info("extract cache hit", "file_hash", fileHash)
		return decodeResult(payload, CacheHit)
	}

	// Concurrent requests for the same file and config share one run.
	payload, err, _ := p.group.Do(key, func() (any, error) {
		encoded, err := p.run(ctx, filePath)
		if err != nil {
			return nil, err
		}
		p.store.Set(key, encoded)
		return encoded, nil
	})
	if err != nil {
		return nil, err
	}

	return decodeResult(payload.([]byte), CacheMiss)
}

// run executes the extraction stages in order and returns the serialized
// result, which doubles as the cache payload.
func (p *Pipeline) run(ctx context.Context, filePath string) ([]byte, error) {
	select {
	case p.workers <- struct{}{}:
		defer func() { <-p.workers }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	grid, meta, err := p.grids.ExtractContent(ctx, filePath)
	if err != nil {
		return nil, err
	}

	invoice, err := p.parser.ParseWithLLM(ctx, grid)
	if err != nil {
		return nil, err
	}

	NormalizeKGWeighedRows(invoice, p.logger)

	if _, err := p.validator.ValidateInvoice(invoice); err != nil {
		return nil, err
	}

	AddRowMetadata(invoice)

	encoded, err := json.Marshal(&Result{Invoice: invoice, Extraction: meta})
	if err != nil {
		return nil, fmt.Errorf("encoding extraction result: %w", err)
	}
	return encoded, nil
}

// decodeResult unmarshals a payload into a caller-owned Result so cached
// bytes are never aliased between requests.
func decodeResult(payload []byte, status string) (*Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding extraction result: %w", err)
	}
	result.CacheStatus = status
	return &result, nil
}
