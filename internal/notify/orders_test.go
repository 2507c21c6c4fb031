package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroble/vendibot/internal/orders"
)

type capturingSender struct {
	msgs []EmailMessage
	err  error
}

func (s *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

func TestNotifyOrderCreated(t *testing.T) {
	sender := &capturingSender{}
	n := NewOrderNotifier(sender, "owner@elroble.co", "Licores El Roble", nil)

	order := &orders.Order{
		ID:            uuid.New(),
		CustomerID:    "573001112233",
		Name:          "Ana",
		Address:       "Calle 1",
		Phone:         "3000000000",
		PaymentMethod: "efectivo",
		Items: []orders.LineItem{
			{ProductName: "Tequila", Quantity: 2, UnitPrice: 95000},
		},
		Total: 190000,
	}

	require.NoError(t, n.NotifyOrderCreated(context.Background(), order))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "owner@elroble.co", msg.To)
	assert.Contains(t, msg.Subject, "Ana")
	assert.Contains(t, msg.Body, "2x Tequila")
	assert.Contains(t, msg.Body, "COP 190000")
	assert.Contains(t, msg.Body, "Licores El Roble")
}

func TestNotifyOrderCreatedSendFailure(t *testing.T) {
	sender := &capturingSender{err: assert.AnError}
	n := NewOrderNotifier(sender, "owner@elroble.co", "Licores El Roble", nil)

	err := n.NotifyOrderCreated(context.Background(), &orders.Order{ID: uuid.New()})
	require.Error(t, err)
}

func TestNotifyOrderCreatedNilOrder(t *testing.T) {
	sender := &capturingSender{}
	n := NewOrderNotifier(sender, "owner@elroble.co", "Licores El Roble", nil)

	require.NoError(t, n.NotifyOrderCreated(context.Background(), nil))
	assert.Empty(t, sender.msgs)
}
