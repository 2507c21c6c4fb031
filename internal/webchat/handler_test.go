package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroble/vendibot/internal/conversation"
)

type fakeEnqueuer struct {
	mu   sync.Mutex
	reqs []conversation.MessageRequest
}

func (f *fakeEnqueuer) EnqueueMessage(_ context.Context, req conversation.MessageRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return nil
}

func (f *fakeEnqueuer) all() []conversation.MessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]conversation.MessageRequest(nil), f.reqs...)
}

func dialTestSocket(t *testing.T, h *Handler, session string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg OutboundMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketSessionAndMessage(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(enq, nil, nil)

	conn := dialTestSocket(t, h, "abc123")

	first := readMessage(t, conn)
	assert.Equal(t, "session", first.Type)
	assert.Equal(t, "abc123", first.SessionID)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: "message", Text: "hola"}))

	// Typing indicator comes back before the job is enqueued.
	typing := readMessage(t, conn)
	assert.Equal(t, "typing", typing.Type)

	require.Eventually(t, func() bool { return len(enq.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	req := enq.all()[0]
	assert.Equal(t, "webchat:abc123", req.UserID)
	assert.Equal(t, "hola", req.Text)
	assert.Equal(t, "webchat", req.Channel)
}

func TestWebSocketPingPong(t *testing.T) {
	h := NewHandler(&fakeEnqueuer{}, nil, nil)
	conn := dialTestSocket(t, h, "ping-session")

	_ = readMessage(t, conn) // session

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: "ping"}))
	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
}

func TestMessengerDeliversToActiveSession(t *testing.T) {
	h := NewHandler(&fakeEnqueuer{}, nil, nil)
	conn := dialTestSocket(t, h, "live")
	_ = readMessage(t, conn) // session

	m := NewMessenger(h)

	// Registration happens right after the session frame; retry briefly.
	require.Eventually(t, func() bool {
		return m.SendText(context.Background(), UserID("live"), "¡Hola!") == nil
	}, 2*time.Second, 10*time.Millisecond)

	msg := readMessage(t, conn)
	assert.Equal(t, "message", msg.Type)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "¡Hola!", msg.Text)

	require.NoError(t, m.SendImage(context.Background(), UserID("live"), "https://cdn.example.com/1.jpg", "Tequila"))
	img := readMessage(t, conn)
	assert.Equal(t, "image", img.Type)
	assert.Equal(t, "https://cdn.example.com/1.jpg", img.ImageURL)
}

func TestMessengerFailsWithoutSession(t *testing.T) {
	m := NewMessenger(NewHandler(&fakeEnqueuer{}, nil, nil))
	err := m.SendText(context.Background(), UserID("gone"), "hola")
	require.Error(t, err)
}

func TestHandleMessageFallback(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(enq, nil, nil)

	body := `{"session_id":"s1","text":"quiero un ron"}`
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, "s1", resp["session_id"])

	require.Len(t, enq.all(), 1)
	assert.Equal(t, "webchat:s1", enq.all()[0].UserID)
}

func TestHandleMessageValidation(t *testing.T) {
	h := NewHandler(&fakeEnqueuer{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	h.HandleMessage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
