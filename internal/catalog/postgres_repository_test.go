package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresCreateProduct(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), "Tequila", "Reposado", 95000.0, 10, []string{"margarita"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := repo.CreateProduct(context.Background(), &CreateProductRequest{
		Name:           "Tequila",
		Description:    "Reposado",
		Price:          95000,
		Stock:          10,
		RecommendedFor: []string{"margarita"},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if p.Name != "Tequila" || p.ID == uuid.Nil {
		t.Fatalf("unexpected product %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGetProductNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	id := uuid.New()
	mock.ExpectQuery("SELECT id, name, description, price, stock, recommended_for").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetProduct(context.Background(), id); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresDecrementStock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectExec("UPDATE products").
		WithArgs("Tequila", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.DecrementStock(context.Background(), "Tequila", 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	mock.ExpectExec("UPDATE products").
		WithArgs("Champagne", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.DecrementStock(context.Background(), "Champagne", 1); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListProducts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	productID := uuid.New()
	variantID := uuid.New()

	mock.ExpectQuery("SELECT id, name, description, price, stock, recommended_for").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "price", "stock", "recommended_for"}).
			AddRow(productID, "Tequila", "Reposado", 95000.0, 10, []string{"margarita"}))

	mock.ExpectQuery("SELECT id, product_id, COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "sku", "options", "price", "stock"}).
			AddRow(variantID, productID, "TEQ-Y", []byte(`{"color":"Yellow"}`), 95000.0, 6))

	mock.ExpectQuery("SELECT id, product_id, variant_id, url").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "variant_id", "url", "label"}).
			AddRow(uuid.New(), productID, &variantID, "https://cdn.example.com/1.jpg", ""))

	products, err := repo.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}
	p := products[0]
	if len(p.Variants) != 1 || p.Variants[0].Options["color"] != "Yellow" {
		t.Fatalf("expected decoded variant options, got %+v", p.Variants)
	}
	if len(p.Images) != 1 || p.Images[0].VariantID == nil {
		t.Fatalf("expected variant-scoped image, got %+v", p.Images)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
