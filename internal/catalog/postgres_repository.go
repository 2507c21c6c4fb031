package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the catalog in the relational database.
type PostgresRepository struct {
	pool dbQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(db dbQuerier) *PostgresRepository {
	if db == nil {
		panic("catalog: querier required")
	}
	return &PostgresRepository{pool: db}
}

// ListProducts returns every product with its variants and images attached.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, price, stock, recommended_for
		FROM products
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products failed: %w", err)
	}
	defer rows.Close()

	var products []Product
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.RecommendedFor); err != nil {
			return nil, fmt.Errorf("catalog: scan product failed: %w", err)
		}
		byID[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate products failed: %w", err)
	}

	if err := r.attachVariants(ctx, products, byID); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, products, byID); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresRepository) attachVariants(ctx context.Context, products []Product, byID map[uuid.UUID]int) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, COALESCE(sku, ''), options, price, stock
		FROM product_variants
		ORDER BY created_at
	`)
	if err != nil {
		return fmt.Errorf("catalog: list variants failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		var options []byte
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &options, &v.Price, &v.Stock); err != nil {
			return fmt.Errorf("catalog: scan variant failed: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &v.Options); err != nil {
				return fmt.Errorf("catalog: decode variant options failed: %w", err)
			}
		}
		if i, ok := byID[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) attachImages(ctx context.Context, products []Product, byID map[uuid.UUID]int) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, variant_id, url, COALESCE(label, '')
		FROM product_images
		ORDER BY created_at
	`)
	if err != nil {
		return fmt.Errorf("catalog: list images failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.VariantID, &img.URL, &img.Label); err != nil {
			return fmt.Errorf("catalog: scan image failed: %w", err)
		}
		if i, ok := byID[img.ProductID]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	return rows.Err()
}

// GetProduct fetches a single product with variants and images.
func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, price, stock, recommended_for
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.RecommendedFor)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("catalog: select product failed: %w", err)
	}

	products := []Product{p}
	byID := map[uuid.UUID]int{p.ID: 0}
	if err := r.attachVariants(ctx, products, byID); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, products, byID); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// CreateProduct inserts a new product row.
func (r *PostgresRepository) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO products (id, name, description, price, stock, recommended_for)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query,
		id,
		req.Name,
		req.Description,
		req.Price,
		req.Stock,
		req.RecommendedFor,
	); err != nil {
		return nil, fmt.Errorf("catalog: insert product failed: %w", err)
	}

	return &Product{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Stock:          req.Stock,
		RecommendedFor: req.RecommendedFor,
	}, nil
}

// DeleteProduct removes a product; variants and images cascade.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AddVariant inserts a variant row for a product.
func (r *PostgresRepository) AddVariant(ctx context.Context, productID uuid.UUID, req *CreateVariantRequest) (*Variant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode variant options failed: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO product_variants (id, product_id, sku, options, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, id, productID, req.SKU, options, req.Price, req.Stock); err != nil {
		return nil, fmt.Errorf("catalog: insert variant failed: %w", err)
	}

	return &Variant{
		ID:        id,
		ProductID: productID,
		SKU:       req.SKU,
		Options:   req.Options,
		Price:     req.Price,
		Stock:     req.Stock,
	}, nil
}

// AddImage inserts an image row, optionally scoped to a variant.
func (r *PostgresRepository) AddImage(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, url, label string) (*ProductImage, error) {
	id := uuid.New()
	query := `
		INSERT INTO product_images (id, product_id, variant_id, url, label)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, id, productID, variantID, url, label); err != nil {
		return nil, fmt.Errorf("catalog: insert image failed: %w", err)
	}

	return &ProductImage{
		ID:        id,
		ProductID: productID,
		VariantID: variantID,
		URL:       url,
		Label:     label,
	}, nil
}

// DecrementStock subtracts quantity from the first product whose name
// contains productName, floored at zero.
func (r *PostgresRepository) DecrementStock(ctx context.Context, productName string, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	query := `
		UPDATE products
		SET stock = GREATEST(stock - $2, 0)
		WHERE id = (
			SELECT id FROM products
			WHERE name ILIKE '%' || $1 || '%'
			ORDER BY created_at
			LIMIT 1
		)
	`
	tag, err := r.pool.Exec(ctx, query, productName, quantity)
	if err != nil {
		return fmt.Errorf("catalog: stock update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
