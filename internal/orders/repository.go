package orders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists finalized orders.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	// FindRecentByCustomer returns the customer's most recent order touched
	// at or after since, or ErrOrderNotFound.
	FindRecentByCustomer(ctx context.Context, customerID string, since time.Time) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InMemoryRepository is the dev and test order store.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
	seq    []uuid.UUID
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[uuid.UUID]*Order)}
}

func (r *InMemoryRepository) Insert(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	r.orders[order.ID] = &clone
	r.seq = append(r.seq, order.ID)
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *InMemoryRepository) FindRecentByCustomer(_ context.Context, customerID string, since time.Time) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Order
	for _, id := range r.seq {
		o := r.orders[id]
		if o == nil || o.CustomerID != customerID || o.UpdatedAt.Before(since) {
			continue
		}
		if found == nil || o.UpdatedAt.After(found.UpdatedAt) {
			found = o
		}
	}
	if found == nil {
		return nil, ErrOrderNotFound
	}
	clone := *found
	return &clone, nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.seq))
	for _, id := range r.seq {
		if o := r.orders[id]; o != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	for i, sid := range r.seq {
		if sid == id {
			r.seq = append(r.seq[:i], r.seq[i+1:]...)
			break
		}
	}
	return nil
}
