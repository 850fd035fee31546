package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is server-side per-browser state: the flash and the location to
// return to after signing in.
type Session struct {
	ID        string            `json:"-"`
	ReturnTo  string            `json:"returnTo,omitempty"`
	Flash     map[string]string `json:"flash,omitempty"`
	ExpiresAt time.Time         `json:"-"`
}

// NewSession returns an empty session with a fresh random id.
func NewSession() *Session {
	return &Session{ID: uuid.New().String()}
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(kind, message string) {
	if s.Flash == nil {
		s.Flash = make(map[string]string)
	}
	s.Flash[kind] = message
}

// TakeFlash removes and returns the queued messages.
func (s *Session) TakeFlash() map[string]string {
	flash := s.Flash
	s.Flash = nil
	return flash
}

// SessionServiceProvider defines the interface for the session store.
type SessionServiceProvider interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Destroy(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService persists sessions in the sessions table.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionService creates a new SessionService whose sessions live for ttl
// after their last save.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

// Load returns the unexpired session with the given id, or ErrNotFound.
func (s *SessionService) Load(ctx context.Context, id string) (*Session, error) {
	var data string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT data, expires_at FROM sessions WHERE id = ?", id).Scan(&data, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !expiresAt.After(time.Now()) {
		return nil, ErrNotFound
	}

	sess := &Session{ID: id, ExpiresAt: expiresAt}
	if err := json.Unmarshal([]byte(data), sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

// Save upserts the session and pushes its expiry forward.
func (s *SessionService) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	sess.ExpiresAt = time.Now().UTC().Add(s.ttl)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		sess.ID, string(data), sess.ExpiresAt)
	return err
}

// Destroy deletes a session.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteExpired removes sessions that expired at or before now.
func (s *SessionService) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
