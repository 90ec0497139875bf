package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// OAuthStateExpiry is how long a login attempt may take
const OAuthStateExpiry = 10 * time.Minute

// OAuthStateStore manages single-use OAuth CSRF state values
type OAuthStateStore struct {
	repo *Repository
}

// NewOAuthStateStore creates a new OAuth state store
func NewOAuthStateStore(repo *Repository) *OAuthStateStore {
	return &OAuthStateStore{repo: repo}
}

// CreateState stores and returns a fresh random state
func (s *OAuthStateStore) CreateState(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	_, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO oauth_states (state, expires_at) VALUES (?, ?)
	`, state, time.Now().UTC().Add(OAuthStateExpiry))
	if err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState deletes state and reports whether it was live
func (s *OAuthStateStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	res, err := s.repo.db.ExecContext(ctx, `
		DELETE FROM oauth_states WHERE state = ? AND expires_at > ?
	`, state, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpiredStates removes abandoned login attempts
func (s *OAuthStateStore) CleanupExpiredStates(ctx context.Context) (int64, error) {
	res, err := s.repo.db.ExecContext(ctx, "DELETE FROM oauth_states WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
