package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
)

// PostgresRepository implements ProductRepository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository connects to PostgreSQL and verifies the connection.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: pool}, nil
}

// Close closes the underlying connection pool.
func (r *PostgresRepository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *PostgresRepository) FindProductByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	query := `
		SELECT product_id, barcode, name, normalized_name, supplier, price, price_50, price_70, price_100, markup
		FROM products
		WHERE barcode = $1
	`

	record := &domain.ProductRecord{}
	err := r.db.QueryRow(ctx, query, barcode).Scan(
		&record.ProductID,
		&record.Barcode,
		&record.Name,
		&record.NormalizedName,
		&record.Supplier,
		&record.Price,
		&record.Price50,
		&record.Price70,
		&record.Price100,
		&record.Markup,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) FindProductsByNormalizedName(ctx context.Context, normalizedName string) ([]domain.ProductRecord, error) {
	query := `
		SELECT product_id, barcode, name, normalized_name, supplier, price, price_50, price_70, price_100, markup
		FROM products
		WHERE normalized_name = $1
		ORDER BY product_id
	`

	rows, err := r.db.Query(ctx, query, normalizedName)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by normalized name: %w", err)
	}
	defer rows.Close()

	var records []domain.ProductRecord
	for rows.Next() {
		var record domain.ProductRecord
		if err := rows.Scan(
			&record.ProductID,
			&record.Barcode,
			&record.Name,
			&record.NormalizedName,
			&record.Supplier,
			&record.Price,
			&record.Price50,
			&record.Price70,
			&record.Price100,
			&record.Markup,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return records, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, input domain.UpsertProductInput) (*domain.ProductRecord, error) {
	query := `
		INSERT INTO products (barcode, name, normalized_name, supplier, price, price_50, price_70, price_100, markup)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING product_id, barcode, name, normalized_name, supplier, price, price_50, price_70, price_100, markup
	`

	record := &domain.ProductRecord{}
	err := r.db.QueryRow(
		ctx,
		query,
		input.Barcode,
		input.Name,
		input.NormalizedName,
		input.Supplier,
		input.Price,
		input.Price50,
		input.Price70,
		input.Price100,
		input.Markup,
	).Scan(
		&record.ProductID,
		&record.Barcode,
		&record.Name,
		&record.NormalizedName,
		&record.Supplier,
		&record.Price,
		&record.Price50,
		&record.Price70,
		&record.Price100,
		&record.Markup,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, productID string, input domain.UpsertProductInput) (*domain.ProductRecord, error) {
	query := `
		UPDATE products
		SET name = $1, normalized_name = $2, barcode = $3,
		    price = $4, price_50 = $5, price_70 = $6, price_100 = $7, markup = $8,
		    supplier = COALESCE($9, supplier), updated_at = CURRENT_TIMESTAMP
		WHERE product_id = $10
		RETURNING product_id, barcode, name, normalized_name, supplier, price, price_50, price_70, price_100, markup
	`

	record := &domain.ProductRecord{}
	err := r.db.QueryRow(
		ctx,
		query,
		input.Name,
		input.NormalizedName,
		input.Barcode,
		input.Price,
		input.Price50,
		input.Price70,
		input.Price100,
		input.Markup,
		input.Supplier,
		productID,
	).Scan(
		&record.ProductID,
		&record.Barcode,
		&record.Name,
		&record.NormalizedName,
		&record.Supplier,
		&record.Price,
		&record.Price50,
		&record.Price70,
		&record.Price100,
		&record.Markup,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) AddStockMovementIn(ctx context.Context, productID string, quantity float64, importID string) error {
	query := `
		INSERT INTO stock_movements (product_id, movement_type, quantity, import_id)
		VALUES ($1, 'IN', $2, $3)
	`

	if _, err := r.db.Exec(ctx, query, productID, quantity, importID); err != nil {
		return fmt.Errorf("failed to add stock movement: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetIdempotentResult(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT idempotency_key, request_hash, response, created_at
		FROM import_idempotency
		WHERE idempotency_key = $1
	`

	record := &domain.IdempotencyRecord{}
	err := r.db.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.RequestHash,
		&record.Response,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) SaveIdempotentResult(ctx context.Context, record *domain.IdempotencyRecord) error {
	query := `
		INSERT INTO import_idempotency (idempotency_key, request_hash, response, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, record.Key, record.RequestHash, record.Response, record.CreatedAt); err != nil {
		return fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return nil
}
