package webchat

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Messenger delivers assistant replies to active webchat sessions. It
// satisfies the conversation pipeline's Messenger interface; recipients are
// pipeline user ids carrying the webchat prefix.
type Messenger struct {
	handler *Handler
}

func NewMessenger(handler *Handler) *Messenger {
	if handler == nil {
		panic("webchat: handler cannot be nil")
	}
	return &Messenger{handler: handler}
}

func (m *Messenger) SendText(_ context.Context, recipient, text string) error {
	sessionID := strings.TrimPrefix(recipient, UserIDPrefix)
	ok := m.handler.sendToSession(sessionID, OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if !ok {
		return fmt.Errorf("webchat: no active session for %s", sessionID)
	}
	return nil
}

func (m *Messenger) SendImage(_ context.Context, recipient, url, caption string) error {
	sessionID := strings.TrimPrefix(recipient, UserIDPrefix)
	ok := m.handler.sendToSession(sessionID, OutboundMessage{
		Type:      "image",
		Role:      "assistant",
		ImageURL:  url,
		Caption:   caption,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if !ok {
		return fmt.Errorf("webchat: no active session for %s", sessionID)
	}
	return nil
}
