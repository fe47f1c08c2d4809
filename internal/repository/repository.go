// Package repository persists products, stock movements and idempotency
// records for the import service.
package repository

import (
	"context"
	"errors"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("repository: record not found")

// ProductRepository defines the persistence operations the import service
// needs. Both the in-memory and the PostgreSQL implementations satisfy it.
type ProductRepository interface {
	// FindProductByBarcode returns the product with the given barcode or
	// ErrNotFound.
	FindProductByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error)

	// FindProductsByNormalizedName returns every product whose normalized
	// name matches exactly. An empty slice means no match.
	FindProductsByNormalizedName(ctx context.Context, normalizedName string) ([]domain.ProductRecord, error)

	// CreateProduct inserts a new product and returns the stored record.
	CreateProduct(ctx context.Context, input domain.UpsertProductInput) (*domain.ProductRecord, error)

	// UpdateProduct updates pricing fields of an existing product.
	UpdateProduct(ctx context.Context, productID string, input domain.UpsertProductInput) (*domain.ProductRecord, error)

	// AddStockMovementIn records an inbound stock movement for a product.
	AddStockMovementIn(ctx context.Context, productID string, quantity float64, importID string) error

	// GetIdempotentResult returns the stored import outcome for a key or
	// ErrNotFound.
	GetIdempotentResult(ctx context.Context, key string) (*domain.IdempotencyRecord, error)

	// SaveIdempotentResult stores a completed import outcome under its key.
	SaveIdempotentResult(ctx context.Context, record *domain.IdempotencyRecord) error
}
