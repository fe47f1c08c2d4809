package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// stockMovement is an inbound inventory entry recorded during import.
type stockMovement struct {
	ProductID string
	Quantity  float64
	ImportID  string
}

// MemoryRepository is a mutex-serialized in-memory ProductRepository. It is
// the default when no DATABASE_URL is configured and backs the unit tests.
type MemoryRepository struct {
	mu          sync.Mutex
	products    map[string]*domain.ProductRecord
	movements   []stockMovement
	idempotency map[string]*domain.IdempotencyRecord
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:    make(map[string]*domain.ProductRecord),
		idempotency: make(map[string]*domain.IdempotencyRecord),
	}
}

func (r *MemoryRepository) FindProductByBarcode(_ context.Context, barcode string) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindProductsByNormalizedName(_ context.Context, normalizedName string) ([]domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []domain.ProductRecord
	for _, p := range r.products {
		if p.NormalizedName == normalizedName {
			matches = append(matches, *p)
		}
	}
	return matches, nil
}

func (r *MemoryRepository) CreateProduct(_ context.Context, input domain.UpsertProductInput) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := &domain.ProductRecord{
		ProductID:      "p_" + uuid.NewString(),
		Barcode:        input.Barcode,
		Name:           input.Name,
		NormalizedName: input.NormalizedName,
		Supplier:       input.Supplier,
		Price:          input.Price,
		Price50:        input.Price50,
		Price70:        input.Price70,
		Price100:       input.Price100,
		Markup:         input.Markup,
	}
	r.products[record.ProductID] = record

	clone := *record
	return &clone, nil
}

func (r *MemoryRepository) UpdateProduct(_ context.Context, productID string, input domain.UpsertProductInput) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	// Rebuild the record from the new input so later imports match on the
	// refreshed name; only the supplier survives an absent value.
	record.Name = input.Name
	record.NormalizedName = input.NormalizedName
	record.Barcode = input.Barcode
	record.Price = input.Price
	record.Price50 = input.Price50
	record.Price70 = input.Price70
	record.Price100 = input.Price100
	record.Markup = input.Markup
	if input.Supplier != nil {
		record.Supplier = input.Supplier
	}

	clone := *record
	return &clone, nil
}

func (r *MemoryRepository) AddStockMovementIn(_ context.Context, productID string, quantity float64, importID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return ErrNotFound
	}
	r.movements = append(r.movements, stockMovement{ProductID: productID, Quantity: quantity, ImportID: importID})
	return nil
}

func (r *MemoryRepository) GetIdempotentResult(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.idempotency[key]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *MemoryRepository) SaveIdempotentResult(_ context.Context, record *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.idempotency[record.Key] = &clone
	return nil
}

// MovementCount returns the number of recorded stock movements (used by
// tests to assert import side effects).
func (r *MemoryRepository) MovementCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}
