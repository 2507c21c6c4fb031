package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroble/vendibot/internal/catalog"
)

func float(v float64) *float64 { return &v }

func testInventory(t *testing.T) (*catalog.InMemoryRepository, *catalog.Product) {
	t.Helper()
	repo := catalog.NewInMemoryRepository()
	p, err := repo.CreateProduct(context.Background(), &catalog.CreateProductRequest{
		Name:  "Tequila",
		Price: 95000,
		Stock: 10,
	})
	require.NoError(t, err)
	return repo, p
}

func TestProcessMultiTurnMerge(t *testing.T) {
	ctx := context.Background()
	inventory, product := testInventory(t)
	store := NewInMemoryRepository()
	rec := NewReconciler(store, inventory)

	// Turn 1: only products known.
	res, err := rec.Process(ctx, "573001112233", &Payload{
		Products: []LineItem{{ProductName: "Tequila", Quantity: 2, UnitPrice: 95000}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMissingFields, res.Status)
	assert.ElementsMatch(t, []string{"name", "address", "phone", "payment_method"}, res.Missing)
	assert.Equal(t, StateAwaitingFields, res.Pending.State)

	// Turn 2: customer fills in everything.
	res, err = rec.Process(ctx, "573001112233", &Payload{
		Name:          "Ana",
		Address:       "Calle 1",
		Phone:         "3000000000",
		PaymentMethod: "efectivo",
	})
	require.NoError(t, err)
	require.Equal(t, StatusCreated, res.Status)
	require.NotNil(t, res.Order)
	assert.Equal(t, "Ana", res.Order.Name)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 2, res.Order.Items[0].Quantity)
	assert.Equal(t, 190000.0, res.Order.Total)

	// Stock decremented by the ordered quantity.
	got, err := inventory.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)

	// Pending cleared after finalize.
	_, ok := rec.Pending("573001112233")
	assert.False(t, ok)
}

func TestMergeRejectsPlaceholders(t *testing.T) {
	inventory, _ := testInventory(t)
	rec := NewReconciler(NewInMemoryRepository(), inventory)

	pending := rec.Merge("u1", &Payload{
		Name:          "NOMBRE",
		Address:       "tu dirección completa",
		Phone:         "YOUR_PHONE",
		PaymentMethod: "your payment method",
	})
	assert.Empty(t, pending.Name)
	assert.Empty(t, pending.Address)
	assert.Empty(t, pending.Phone)
	assert.Empty(t, pending.PaymentMethod)

	// A real value later fills the field; placeholders never overwrite it.
	pending = rec.Merge("u1", &Payload{Name: "Ana"})
	assert.Equal(t, "Ana", pending.Name)
	pending = rec.Merge("u1", &Payload{Name: "NOMBRE"})
	assert.Equal(t, "Ana", pending.Name)
}

func TestMergeIdempotent(t *testing.T) {
	inventory, _ := testInventory(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := WithClock(func() time.Time { return now })

	payload := &Payload{
		Name:          "Ana",
		Address:       "Calle 1",
		Phone:         "3000000000",
		PaymentMethod: "efectivo",
		Products:      []LineItem{{ProductName: "Tequila", Quantity: 2, UnitPrice: 95000}},
		Total:         float(190000),
	}

	// Merging the same payload twice leaves the pending order exactly as a
	// single merge would.
	once := NewReconciler(NewInMemoryRepository(), inventory, clock)
	baseline := once.Merge("u1", payload)

	twice := NewReconciler(NewInMemoryRepository(), inventory, clock)
	twice.Merge("u1", payload)
	repeated := twice.Merge("u1", payload)

	assert.Equal(t, baseline, repeated)
}

func TestProcessDedupWindow(t *testing.T) {
	ctx := context.Background()
	inventory, _ := testInventory(t)
	store := NewInMemoryRepository()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewReconciler(store, inventory,
		WithDedupWindow(5*time.Minute),
		WithClock(func() time.Time { return now }))

	complete := func(items []LineItem, total *float64) *Payload {
		return &Payload{
			Name: "Ana", Address: "Calle 1", Phone: "3000000000", PaymentMethod: "efectivo",
			Products: items, Total: total,
		}
	}

	res, err := rec.Process(ctx, "u1", complete([]LineItem{{ProductName: "Tequila", Quantity: 1, UnitPrice: 95000}}, float(95000)))
	require.NoError(t, err)
	require.Equal(t, StatusCreated, res.Status)
	firstID := res.Order.ID

	// Second finalize 2 minutes later: same record updated in place.
	now = now.Add(2 * time.Minute)
	res, err = rec.Process(ctx, "u1", complete([]LineItem{{ProductName: "Tequila", Quantity: 2, UnitPrice: 95000}}, float(190000)))
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Equal(t, firstID, res.Order.ID)
	assert.Equal(t, 190000.0, res.Order.Total)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// A finalize outside the window creates a second record.
	now = now.Add(10 * time.Minute)
	res, err = rec.Process(ctx, "u1", complete([]LineItem{{ProductName: "Tequila", Quantity: 1, UnitPrice: 95000}}, float(95000)))
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.NotEqual(t, firstID, res.Order.ID)

	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type failingRepository struct {
	*InMemoryRepository
	failInsert bool
}

func (r *failingRepository) Insert(ctx context.Context, order *Order) error {
	if r.failInsert {
		return errors.New("connection refused")
	}
	return r.InMemoryRepository.Insert(ctx, order)
}

func TestProcessKeepsPendingOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	inventory, _ := testInventory(t)
	store := &failingRepository{InMemoryRepository: NewInMemoryRepository(), failInsert: true}
	rec := NewReconciler(store, inventory)

	payload := &Payload{
		Name: "Ana", Address: "Calle 1", Phone: "3000000000", PaymentMethod: "efectivo",
		Products: []LineItem{{ProductName: "Tequila", Quantity: 1, UnitPrice: 95000}},
	}

	_, err := rec.Process(ctx, "u1", payload)
	require.Error(t, err)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert order", perr.Op)

	// Pending survives so the next turn can retry without re-entering data.
	pending, ok := rec.Pending("u1")
	require.True(t, ok)
	assert.Equal(t, "Ana", pending.Name)

	store.failInsert = false
	res, err := rec.Process(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
}

func TestProcessSkipsUnknownProductStock(t *testing.T) {
	ctx := context.Background()
	inventory, _ := testInventory(t)
	rec := NewReconciler(NewInMemoryRepository(), inventory)

	res, err := rec.Process(ctx, "u1", &Payload{
		Name: "Ana", Address: "Calle 1", Phone: "3000000000", PaymentMethod: "efectivo",
		Products: []LineItem{{ProductName: "Champagne", Quantity: 1, UnitPrice: 120000}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
}

func TestValidateReportsMissing(t *testing.T) {
	pending := &PendingOrder{
		UserID: "u1",
		Name:   "Ana",
		Phone:  "TELÉFONO",
		Items:  []LineItem{{ProductName: "Tequila", Quantity: 1}},
	}
	missing := Validate(pending)
	assert.ElementsMatch(t, []string{"address", "phone", "payment_method"}, missing)
}
