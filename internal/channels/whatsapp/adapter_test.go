package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroble/vendibot/internal/conversation"
)

type fakeEnqueuer struct {
	reqs []conversation.MessageRequest
	err  error
}

func (f *fakeEnqueuer) EnqueueMessage(_ context.Context, req conversation.MessageRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

func TestAdapterEnqueuesInboundMessages(t *testing.T) {
	enq := &fakeEnqueuer{}
	a := NewAdapter("token", "12345", testAppSecret, "verify-me", enq, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundBody))
	req.Header.Set("X-Hub-Signature-256", sign(inboundBody))
	rec := httptest.NewRecorder()
	a.HandleWebhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, enq.reqs, 1)
	assert.Equal(t, "573001112233", enq.reqs[0].UserID)
	assert.Equal(t, "hola", enq.reqs[0].Text)
	assert.Equal(t, "whatsapp", enq.reqs[0].Channel)
}

func TestAdapterVerification(t *testing.T) {
	a := NewAdapter("token", "12345", testAppSecret, "verify-me", &fakeEnqueuer{}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=ok", nil)
	rec := httptest.NewRecorder()
	a.HandleVerification(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
