// Package channels routes outbound delivery to the channel a user arrived
// on.
package channels

import (
	"context"
	"strings"

	"github.com/elroble/vendibot/internal/webchat"
)

// Messenger matches conversation.Messenger without importing it.
type Messenger interface {
	SendText(ctx context.Context, recipient, text string) error
	SendImage(ctx context.Context, recipient, url, caption string) error
}

// Router picks a delivery channel by recipient id: webchat-prefixed ids go
// to the webchat messenger, everything else is a phone number on WhatsApp.
type Router struct {
	whatsapp Messenger
	webchat  Messenger
}

func NewRouter(whatsapp, webchat Messenger) *Router {
	if whatsapp == nil {
		panic("channels: whatsapp messenger cannot be nil")
	}
	return &Router{whatsapp: whatsapp, webchat: webchat}
}

func (r *Router) SendText(ctx context.Context, recipient, text string) error {
	return r.pick(recipient).SendText(ctx, recipient, text)
}

func (r *Router) SendImage(ctx context.Context, recipient, url, caption string) error {
	return r.pick(recipient).SendImage(ctx, recipient, url, caption)
}

func (r *Router) pick(recipient string) Messenger {
	if r.webchat != nil && strings.HasPrefix(recipient, webchat.UserIDPrefix) {
		return r.webchat
	}
	return r.whatsapp
}
