package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/elroble/vendibot/pkg/logging"
)

// TranscriptMessage is one persisted conversation message. Unlike the
// bounded session history, the transcript is append-only and unbounded.
type TranscriptMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Channel   string    `json:"channel"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptStore writes every inbound and outbound message to Postgres
// for audit and support. Writes are best effort; a failed write is logged
// and never blocks a reply.
type TranscriptStore struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewTranscriptStore(db *sql.DB, logger *logging.Logger) *TranscriptStore {
	if db == nil {
		panic("conversation: transcript db cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptStore{db: db, logger: logger}
}

// Record inserts one message. Safe to call on a nil store.
func (s *TranscriptStore) Record(ctx context.Context, userID, role, channel, body string) {
	if s == nil {
		return
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, role, channel, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), userID, role, channel, body, time.Now().UTC())
	if err != nil {
		s.logger.Warn("transcript write failed", "user_id", userID, "error", err)
	}
}

// History returns the most recent limit messages for a user, oldest first.
func (s *TranscriptStore) History(ctx context.Context, userID string, limit int) ([]TranscriptMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, channel, body, created_at
		FROM (
			SELECT id, user_id, role, channel, body, created_at
			FROM messages
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: transcript query failed: %w", err)
	}
	defer rows.Close()

	var out []TranscriptMessage
	for rows.Next() {
		var msg TranscriptMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Channel, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: transcript scan failed: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: transcript rows failed: %w", err)
	}
	return out, nil
}
