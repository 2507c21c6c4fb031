package whatsapp

import (
	"context"
	"net/http"
	"time"

	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/pkg/logging"
)

// Enqueuer publishes inbound messages for asynchronous processing.
// *conversation.Publisher satisfies it.
type Enqueuer interface {
	EnqueueMessage(ctx context.Context, req conversation.MessageRequest) error
}

// Adapter is the WhatsApp channel adapter. It verifies and parses inbound
// Meta webhooks, enqueues each text message for the conversation pipeline,
// and exposes the Cloud API client for outbound delivery.
type Adapter struct {
	client    *Client
	webhook   *WebhookHandler
	publisher Enqueuer
	logger    *logging.Logger
}

// NewAdapter creates a new WhatsApp adapter.
func NewAdapter(accessToken, phoneNumberID, appSecret, verifyToken string, publisher Enqueuer, logger *logging.Logger) *Adapter {
	if publisher == nil {
		panic("whatsapp: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	a := &Adapter{
		client:    NewClient(accessToken, phoneNumberID),
		publisher: publisher,
		logger:    logger,
	}

	a.webhook = NewWebhookHandler(verifyToken, appSecret, a.onInbound)
	return a
}

// Client returns the outbound Cloud API client.
func (a *Adapter) Client() *Client {
	return a.client
}

// HandleVerification handles GET /webhooks/whatsapp (Meta challenge).
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /webhooks/whatsapp (inbound messages).
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

func (a *Adapter) onInbound(msg ParsedInboundMessage) {
	a.logger.Info("whatsapp: inbound message",
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
	)

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	err := a.publisher.EnqueueMessage(ctx, conversation.MessageRequest{
		UserID:  msg.SenderID,
		Text:    msg.Text,
		Channel: "whatsapp",
	})
	if err != nil {
		a.logger.Error("whatsapp: failed to enqueue inbound message",
			"sender_id", msg.SenderID,
			"error", err,
		)
	}
}

const enqueueTimeout = 5 * time.Second
