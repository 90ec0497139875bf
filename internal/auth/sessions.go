package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "mess_session"

	// DefaultSessionDuration is the default session lifetime
	DefaultSessionDuration = 30 * 24 * time.Hour
)

// SessionStore manages server-side sessions for the web client
type SessionStore struct {
	repo            *Repository
	sessionDuration time.Duration
	secureCookie    bool
}

// NewSessionStore creates a new session store
func NewSessionStore(repo *Repository, sessionDuration time.Duration, secureCookie bool) *SessionStore {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	return &SessionStore{
		repo:            repo,
		sessionDuration: sessionDuration,
		secureCookie:    secureCookie,
	}
}

// CreateSession creates a new session for a user
func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}
	_, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
	`, session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns a live session, or nil when it is unknown or expired
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	err := s.repo.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, sessionID, time.Now().UTC()).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUserFromSession returns the user behind a live session, or nil
func (s *SessionStore) GetUserFromSession(ctx context.Context, sessionID string) (*User, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, session.UserID)
}

// DeleteSession removes a session
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

// DeleteUserSessions signs a user out everywhere
func (s *SessionStore) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// CleanupExpiredSessions removes expired sessions and reports how many went
func (s *SessionStore) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetSessionCookie sets the session cookie on the response
func (s *SessionStore) SetSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, sessionID, int(s.sessionDuration.Seconds()), "/", "", s.secureCookie, true)
}

// ClearSessionCookie removes the session cookie
func (s *SessionStore) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.secureCookie, true)
}

// GetSessionFromCookie retrieves the session ID from the request cookie
func (s *SessionStore) GetSessionFromCookie(c *gin.Context) (string, error) {
	return c.Cookie(SessionCookieName)
}
