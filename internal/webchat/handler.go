package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/pkg/logging"
)

// UserIDPrefix namespaces webchat sessions so the pipeline and the channel
// router can tell them apart from phone numbers.
const UserIDPrefix = "webchat:"

// Enqueuer publishes inbound messages for asynchronous processing.
type Enqueuer interface {
	EnqueueMessage(ctx context.Context, req conversation.MessageRequest) error
}

// Handler manages web chat connections and messages.
type Handler struct {
	publisher  Enqueuer
	transcript *conversation.TranscriptStore
	logger     *logging.Logger

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*wsConn // session id -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "image", "typing", "history", "session", "error", "pong"
	Text      string           `json:"text,omitempty"`
	ImageURL  string           `json:"image_url,omitempty"`
	Caption   string           `json:"caption,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. transcript may be nil.
func NewHandler(publisher Enqueuer, transcript *conversation.TranscriptStore, logger *logging.Logger) *Handler {
	if publisher == nil {
		panic("webchat: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		publisher:  publisher,
		transcript: transcript,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is embedded on arbitrary storefront pages.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*wsConn),
	}
}

// UserID builds the pipeline user id for a webchat session.
func UserID(sessionID string) string {
	return UserIDPrefix + sessionID
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("webchat: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	wsc := &wsConn{conn: conn}
	_ = wsc.writeJSON(OutboundMessage{Type: "session", SessionID: sessionID})
	h.sendHistory(r.Context(), wsc, sessionID, 50)

	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = wsc.writeJSON(OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.processMessage(r.Context(), sessionID, msg.Text)
	}
}

func (h *Handler) processMessage(ctx context.Context, sessionID, text string) {
	h.sendToSession(sessionID, OutboundMessage{Type: "typing"})

	err := h.publisher.EnqueueMessage(ctx, conversation.MessageRequest{
		UserID:  UserID(sessionID),
		Text:    text,
		Channel: "webchat",
	})
	if err != nil {
		h.logger.Error("webchat: failed to enqueue message", "error", err, "session_id", sessionID)
		h.sendToSession(sessionID, OutboundMessage{
			Type: "error",
			Text: "Lo siento, algo salió mal. Inténtalo de nuevo.",
		})
	}
}

func (h *Handler) sendToSession(sessionID string, msg OutboundMessage) bool {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return wsc.writeJSON(msg) == nil
}

func (h *Handler) sendHistory(ctx context.Context, wsc *wsConn, sessionID string, limit int) {
	if h.transcript == nil {
		return
	}
	msgs, err := h.transcript.History(ctx, UserID(sessionID), limit)
	if err != nil || len(msgs) == 0 {
		return
	}
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      m.Role,
			Text:      m.Body,
			Timestamp: m.CreatedAt.Format(time.RFC3339),
		})
	}
	_ = wsc.writeJSON(OutboundMessage{Type: "history", Messages: history})
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	h.processMessage(r.Context(), req.SessionID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":     "queued",
		"session_id": req.SessionID,
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history := []HistoryMessage{}
	if h.transcript != nil {
		msgs, err := h.transcript.History(r.Context(), UserID(sessionID), 100)
		if err != nil {
			h.logger.Error("webchat: failed to load history", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		for _, m := range msgs {
			history = append(history, HistoryMessage{
				Role:      m.Role,
				Text:      m.Body,
				Timestamp: m.CreatedAt.Format(time.RFC3339),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
