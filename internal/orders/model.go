package orders

import (
	"time"

	"github.com/google/uuid"
)

// State tracks where a pending order sits in the reconciliation flow.
type State string

const (
	StateCollecting      State = "collecting"
	StateAwaitingFields  State = "awaiting_fields"
	StateReadyToFinalize State = "ready_to_finalize"
	StateFinalized       State = "finalized"
)

// Required customer fields for a finalized order.
var requiredFields = []string{"name", "address", "phone", "payment_method"}

// LineItem is one ordered product.
type LineItem struct {
	ProductName string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"price"`
}

// Payload is the structured order block extracted from a generation-service
// reply. Fields are raw and unvalidated; empty strings mean "not provided".
type Payload struct {
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Phone         string     `json:"phone"`
	PaymentMethod string     `json:"payment_method"`
	Products      []LineItem `json:"products"`
	Total         *float64   `json:"total"`
}

// PendingOrder is the in-progress order being assembled across turns for a
// single user. Exactly one exists per active user, keyed by user id.
type PendingOrder struct {
	UserID        string
	Name          string
	Address       string
	Phone         string
	PaymentMethod string
	Items         []LineItem
	Total         *float64
	State         State
	LastTouched   time.Time
}

// Order is a persisted, finalized order record.
type Order struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    string     `json:"customer_id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Phone         string     `json:"phone"`
	PaymentMethod string     `json:"payment_method"`
	Items         []LineItem `json:"items"`
	Total         float64    `json:"total"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProductNames lists the ordered product names, used for recommendations.
func (p *PendingOrder) ProductNames() []string {
	names := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		names = append(names, item.ProductName)
	}
	return names
}
