package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elroble/vendibot/internal/catalog"
	"github.com/elroble/vendibot/pkg/logging"
)

// Status describes the outcome of applying an extracted payload.
type Status string

const (
	// StatusMissingFields means the pending order still lacks required
	// customer data and the assistant should keep asking for it.
	StatusMissingFields Status = "missing_fields"
	// StatusCreated means a new order record was persisted.
	StatusCreated Status = "created"
	// StatusUpdated means a recent order for the same customer was
	// updated in place instead of inserting a duplicate.
	StatusUpdated Status = "updated"
)

// Result is what the conversation pipeline gets back after a payload is
// reconciled against the user's pending order.
type Result struct {
	Status  Status
	Missing []string
	Order   *Order
	Pending *PendingOrder
}

// Inventory decrements catalog stock for finalized line items.
// catalog.Repository satisfies it.
type Inventory interface {
	DecrementStock(ctx context.Context, productName string, quantity int) error
}

// Reconciler merges extracted order payloads into per-user pending orders
// and finalizes them once all required customer fields are present.
//
// Callers must serialize calls per user id; the internal mutex only guards
// the pending map itself.
type Reconciler struct {
	mu       sync.Mutex
	pendings map[string]*PendingOrder

	repo      Repository
	inventory Inventory
	window    time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithDedupWindow overrides the duplicate-order window (default 5 minutes).
func WithDedupWindow(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.window = d }
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger }
}

// NewReconciler creates a Reconciler backed by the given order store and
// inventory.
func NewReconciler(repo Repository, inventory Inventory, opts ...ReconcilerOption) *Reconciler {
	if repo == nil {
		panic("orders: repository is required")
	}
	if inventory == nil {
		panic("orders: inventory is required")
	}
	r := &Reconciler{
		pendings:  make(map[string]*PendingOrder),
		repo:      repo,
		inventory: inventory,
		window:    5 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	return r
}

// Process merges the payload into the user's pending order and finalizes it
// when complete. On a persistence failure the pending order is kept intact
// so the next turn can retry.
func (r *Reconciler) Process(ctx context.Context, userID string, payload *Payload) (*Result, error) {
	pending := r.Merge(userID, payload)

	missing := Validate(pending)
	if len(missing) > 0 {
		pending.State = StateAwaitingFields
		return &Result{Status: StatusMissingFields, Missing: missing, Pending: pending}, nil
	}
	pending.State = StateReadyToFinalize

	order, updated, err := r.finalize(ctx, pending)
	if err != nil {
		return nil, err
	}

	pending.State = StateFinalized
	r.clearPending(userID)

	status := StatusCreated
	if updated {
		status = StatusUpdated
	}
	return &Result{Status: status, Order: order, Pending: pending}, nil
}

// Merge folds an extracted payload into the user's pending order, creating
// one if needed. Placeholder values the model echoed back from its template
// never overwrite real data, and a field already captured is only replaced
// by a new concrete value.
func (r *Reconciler) Merge(userID string, payload *Payload) *PendingOrder {
	r.mu.Lock()
	pending, ok := r.pendings[userID]
	if !ok {
		pending = &PendingOrder{UserID: userID, State: StateCollecting}
		r.pendings[userID] = pending
	}
	r.mu.Unlock()

	if payload != nil {
		mergeField(&pending.Name, payload.Name)
		mergeField(&pending.Address, payload.Address)
		mergeField(&pending.Phone, payload.Phone)
		mergeField(&pending.PaymentMethod, payload.PaymentMethod)
		if len(payload.Products) > 0 {
			pending.Items = append([]LineItem(nil), payload.Products...)
		}
		if payload.Total != nil {
			pending.Total = payload.Total
		}
	}
	pending.LastTouched = r.now()
	return pending
}

// Pending returns the user's in-progress order, if any.
func (r *Reconciler) Pending(userID string) (*PendingOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending, ok := r.pendings[userID]
	return pending, ok
}

// Validate reports which required customer fields are still missing or hold
// placeholder values.
func Validate(pending *PendingOrder) []string {
	var missing []string
	values := map[string]string{
		"name":           pending.Name,
		"address":        pending.Address,
		"phone":          pending.Phone,
		"payment_method": pending.PaymentMethod,
	}
	for _, field := range requiredFields {
		if !isConcrete(values[field]) {
			missing = append(missing, field)
		}
	}
	if len(pending.Items) == 0 {
		missing = append(missing, "products")
	}
	return missing
}

func (r *Reconciler) finalize(ctx context.Context, pending *PendingOrder) (*Order, bool, error) {
	now := r.now()

	total := 0.0
	if pending.Total != nil {
		total = *pending.Total
	} else {
		for _, item := range pending.Items {
			total += item.UnitPrice * float64(item.Quantity)
		}
	}

	recent, err := r.repo.FindRecentByCustomer(ctx, pending.UserID, now.Add(-r.window))
	switch {
	case err == nil:
		recent.Name = pending.Name
		recent.Address = pending.Address
		recent.Phone = pending.Phone
		recent.PaymentMethod = pending.PaymentMethod
		recent.Items = append([]LineItem(nil), pending.Items...)
		recent.Total = total
		recent.UpdatedAt = now
		if err := r.repo.Update(ctx, recent); err != nil {
			return nil, false, &PersistenceError{Op: "update order", Err: err}
		}
		if err := r.decrementStock(ctx, pending.Items); err != nil {
			return nil, false, err
		}
		r.logger.Info("order updated", "order_id", recent.ID, "customer_id", pending.UserID)
		return recent, true, nil

	case errors.Is(err, ErrOrderNotFound):
		order := &Order{
			ID:            uuid.New(),
			CustomerID:    pending.UserID,
			Name:          pending.Name,
			Address:       pending.Address,
			Phone:         pending.Phone,
			PaymentMethod: pending.PaymentMethod,
			Items:         append([]LineItem(nil), pending.Items...),
			Total:         total,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.repo.Insert(ctx, order); err != nil {
			return nil, false, &PersistenceError{Op: "insert order", Err: err}
		}
		if err := r.decrementStock(ctx, pending.Items); err != nil {
			return nil, false, err
		}
		r.logger.Info("order created", "order_id", order.ID, "customer_id", pending.UserID)
		return order, false, nil

	default:
		return nil, false, &PersistenceError{Op: "find recent order", Err: err}
	}
}

// decrementStock runs after the order write, outside any transaction with
// it. Unknown products are skipped; a storage failure surfaces as a
// PersistenceError so the next turn retries (the retry lands on the dedup
// update path, not a second insert).
func (r *Reconciler) decrementStock(ctx context.Context, items []LineItem) error {
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		err := r.inventory.DecrementStock(ctx, item.ProductName, qty)
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			r.logger.Warn("stock decrement skipped, product unknown", "product", item.ProductName)
		case err != nil:
			return &PersistenceError{Op: "decrement stock", Err: err}
		}
	}
	return nil
}

func (r *Reconciler) clearPending(userID string) {
	r.mu.Lock()
	delete(r.pendings, userID)
	r.mu.Unlock()
}

func mergeField(dst *string, candidate string) {
	if isConcrete(candidate) {
		*dst = strings.TrimSpace(candidate)
	}
}

// Template sentinels the model sometimes echoes back verbatim instead of
// actual customer data.
var placeholderValues = map[string]struct{}{
	"NOMBRE":         {},
	"DIRECCIÓN":      {},
	"DIRECCION":      {},
	"TELÉFONO":       {},
	"TELEFONO":       {},
	"TIPO_PAGO":      {},
	"YOUR_NAME":      {},
	"YOUR_ADDRESS":   {},
	"YOUR_PHONE":     {},
	"PAYMENT_METHOD": {},
}

func isConcrete(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if _, ok := placeholderValues[strings.ToUpper(trimmed)]; ok {
		return false
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "tu ") || strings.HasPrefix(lower, "your ") {
		return false
	}
	return true
}
