// Package conversation — chat threads between a user and one coach persona.
package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
	"github.com/matiasleandrokruk/simonsays/pkg/uuid"
)

var (
	ErrNotFound       = errors.New("conversation not found")
	ErrInvalidPersona = errors.New("unknown coach persona")
)

// Conversation is a thread summary.
type Conversation struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Persona       coach.Persona `json:"coach_id"`
	MessageCount  int           `json:"message_count"`
	CreatedAt     time.Time     `json:"created_at"`
	LastMessageAt time.Time     `json:"last_message_at"`
}

// Service stores conversations and their messages in SQLite.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Create starts an empty conversation. An empty persona selects the default.
func (s *Service) Create(ctx context.Context, userID, persona string) (*Conversation, error) {
	p := coach.DefaultPersona
	if persona != "" {
		var ok bool
		if p, ok = coach.ParsePersona(persona); !ok {
			return nil, ErrInvalidPersona
		}
	}

	now := s.now().UTC()
	c := &Conversation{
		ID:            uuid.New(),
		UserID:        userID,
		Persona:       p,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	ts := sqlite.FormatTime(now)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation (id, user_id, coach_id, message_count, created_at, last_message_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, c.ID, userID, string(p), ts, ts)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// ListByUser returns the user's conversations, most recently active first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, coach_id, message_count, created_at, last_message_at
		FROM conversation
		WHERE user_id = ?
		ORDER BY last_message_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []*Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns the conversation id owned by userID, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, coach_id, message_count, created_at, last_message_at
		FROM conversation
		WHERE id = ? AND user_id = ?
	`, id, userID)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// PersonaOf implements coach.ConversationStore.
func (s *Service) PersonaOf(ctx context.Context, userID, id string) (coach.Persona, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return c.Persona, nil
}

// AppendMessage stores msg and bumps the conversation counters.
func (s *Service) AppendMessage(ctx context.Context, conversationID string, msg coach.Message) (*coach.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	msg.Timestamp = msg.Timestamp.UTC()
	ts := sqlite.FormatTime(msg.Timestamp)

	var mime sql.NullString
	var data []byte
	if msg.Image != nil {
		mimeType := msg.Image.MIMEType
		if mimeType == "" {
			mimeType = coach.DefaultImageMIME
		}
		mime = sql.NullString{String: mimeType, Valid: true}
		data = msg.Image.Data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE conversation
		SET message_count = message_count + 1, last_message_at = ?
		WHERE id = ?
	`, ts, conversationID)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO message (id, conversation_id, role, text, image_mime, image_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, conversationID, string(msg.Role), msg.Text, mime, data, ts); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}
	return &msg, nil
}

// History returns the latest limit messages in chronological order.
func (s *Service) History(ctx context.Context, conversationID string, limit int) ([]coach.Message, error) {
	if limit <= 0 {
		limit = coach.HistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, image_mime, image_data, created_at FROM (
			SELECT id, role, text, image_mime, image_data, created_at, rowid AS seq
			FROM message
			WHERE conversation_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return scanMessages(rows)
}

// Messages returns every message of a conversation owned by userID.
func (s *Service) Messages(ctx context.Context, userID, id string) ([]coach.Message, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, image_mime, image_data, created_at
		FROM message
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return scanMessages(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(r rowScanner) (*Conversation, error) {
	var (
		c                Conversation
		persona          string
		created, lastMsg string
	)
	if err := r.Scan(&c.ID, &c.UserID, &persona, &c.MessageCount, &created, &lastMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	c.Persona = coach.PersonaOrDefault(persona)

	var err error
	if c.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return nil, err
	}
	if c.LastMessageAt, err = sqlite.ParseTime(lastMsg); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessages(rows *sql.Rows) ([]coach.Message, error) {
	defer rows.Close()

	out := []coach.Message{}
	for rows.Next() {
		var (
			m        coach.Message
			role, ts string
			mime     sql.NullString
			data     []byte
		)
		if err := rows.Scan(&m.ID, &role, &m.Text, &mime, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = coach.ParseRole(role)
		if mime.Valid {
			m.Image = &coach.Image{MIMEType: mime.String, Data: data}
		}
		var err error
		if m.Timestamp, err = sqlite.ParseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
