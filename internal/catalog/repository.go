package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the storage contract for the catalog.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, req *CreateVariantRequest) (*Variant, error)
	AddImage(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, url, label string) (*ProductImage, error)
	DecrementStock(ctx context.Context, productName string, quantity int) error
}

// InMemoryRepository is a Repository backed by a mutex-guarded map, used in
// tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
	order    []uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{products: make(map[uuid.UUID]*Product)}
}

// ListProducts returns a snapshot of every product with variants and images.
func (r *InMemoryRepository) ListProducts(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// GetProduct retrieves a single product by id.
func (r *InMemoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

// CreateProduct inserts a new product.
func (r *InMemoryRepository) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Product{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Stock:          req.Stock,
		RecommendedFor: req.RecommendedFor,
	}

	r.mu.Lock()
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	r.mu.Unlock()

	clone := *p
	return &clone, nil
}

// DeleteProduct removes a product and its variants and images.
func (r *InMemoryRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddVariant attaches a variant to a product.
func (r *InMemoryRepository) AddVariant(ctx context.Context, productID uuid.UUID, req *CreateVariantRequest) (*Variant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}

	v := Variant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       req.SKU,
		Options:   req.Options,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	p.Variants = append(p.Variants, v)
	return &v, nil
}

// AddImage attaches an image to a product, optionally scoped to a variant.
func (r *InMemoryRepository) AddImage(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, url, label string) (*ProductImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}

	img := ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: variantID,
		URL:       url,
		Label:     label,
	}
	p.Images = append(p.Images, img)
	return &img, nil
}

// DecrementStock subtracts quantity from the first product whose name
// contains productName (case-insensitive), floored at zero.
func (r *InMemoryRepository) DecrementStock(ctx context.Context, productName string, quantity int) error {
	needle := normalizeToken(productName)
	if needle == "" || quantity <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		p := r.products[id]
		if !strings.Contains(normalizeToken(p.Name), needle) {
			continue
		}
		p.Stock -= quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		return nil
	}
	return ErrProductNotFound
}
