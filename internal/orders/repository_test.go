package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestOrder(customerID string, touched time.Time) *Order {
	return &Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Name:          "Ana",
		Address:       "Calle 1",
		Phone:         "3000000000",
		PaymentMethod: "efectivo",
		Items:         []LineItem{{ProductName: "Tequila", Quantity: 1, UnitPrice: 95000}},
		Total:         95000,
		CreatedAt:     touched,
		UpdatedAt:     touched,
	}
}

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	now := time.Now()
	order := newTestOrder("u1", now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana" {
		t.Fatalf("unexpected order %+v", got)
	}

	got.Total = 190000
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Get(ctx, order.ID)
	if got.Total != 190000 {
		t.Fatalf("expected updated total, got %v", got.Total)
	}

	if err := repo.Delete(ctx, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, order.ID); err != ErrOrderNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Update(ctx, order); err != ErrOrderNotFound {
		t.Fatalf("expected not found on update, got %v", err)
	}
}

func TestInMemoryFindRecentByCustomer(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	now := time.Now()
	old := newTestOrder("u1", now.Add(-10*time.Minute))
	fresh := newTestOrder("u1", now.Add(-time.Minute))
	other := newTestOrder("u2", now)
	for _, o := range []*Order{old, fresh, other} {
		if err := repo.Insert(ctx, o); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.FindRecentByCustomer(ctx, "u1", now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("find recent: %v", err)
	}
	if got.ID != fresh.ID {
		t.Fatalf("expected freshest order within window, got %v", got.ID)
	}

	if _, err := repo.FindRecentByCustomer(ctx, "u3", now.Add(-5*time.Minute)); err != ErrOrderNotFound {
		t.Fatalf("expected not found for unknown customer, got %v", err)
	}
	if _, err := repo.FindRecentByCustomer(ctx, "u1", now.Add(time.Minute)); err != ErrOrderNotFound {
		t.Fatalf("expected not found outside window, got %v", err)
	}
}
