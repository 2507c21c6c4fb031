package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/pkg/logging"
)

// OrderNotifier emails the store owner a summary of each new order.
type OrderNotifier struct {
	sender     EmailSender
	ownerEmail string
	storeName  string
	logger     *logging.Logger
}

func NewOrderNotifier(sender EmailSender, ownerEmail, storeName string, logger *logging.Logger) *OrderNotifier {
	if sender == nil {
		panic("notify: email sender cannot be nil")
	}
	if ownerEmail == "" {
		panic("notify: owner email cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OrderNotifier{
		sender:     sender,
		ownerEmail: ownerEmail,
		storeName:  storeName,
		logger:     logger,
	}
}

// NotifyOrderCreated sends the owner a plain-text order summary.
func (n *OrderNotifier) NotifyOrderCreated(ctx context.Context, order *orders.Order) error {
	if order == nil {
		return nil
	}

	subject := fmt.Sprintf("Nuevo pedido de %s — COP %.0f", order.Name, order.Total)

	var b strings.Builder
	fmt.Fprintf(&b, "Nuevo pedido en %s\n\n", n.storeName)
	fmt.Fprintf(&b, "Cliente: %s\n", order.Name)
	fmt.Fprintf(&b, "Teléfono: %s\n", order.Phone)
	fmt.Fprintf(&b, "Dirección: %s\n", order.Address)
	fmt.Fprintf(&b, "Pago: %s\n\n", order.PaymentMethod)
	b.WriteString("Productos:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %dx %s (COP %.0f)\n", item.Quantity, item.ProductName, item.UnitPrice)
	}
	fmt.Fprintf(&b, "\nTotal: COP %.0f\n", order.Total)
	fmt.Fprintf(&b, "Pedido: %s\n", order.ID)

	err := n.sender.Send(ctx, EmailMessage{
		To:      n.ownerEmail,
		Subject: subject,
		Body:    b.String(),
	})
	if err != nil {
		return fmt.Errorf("notify: order notification failed: %w", err)
	}

	n.logger.Info("order notification sent", "order_id", order.ID, "to", n.ownerEmail)
	return nil
}
