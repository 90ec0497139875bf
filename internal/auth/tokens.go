package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// TokenPrefix is the prefix for all generated tokens
const TokenPrefix = "mess_"

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrTokenExpired    = errors.New("token has expired")
	ErrUserInactive    = errors.New("user account is not active")
	ErrTokenNotFound   = errors.New("token not found or already revoked")
	ErrTokenLimit      = errors.New("maximum token limit reached")
	ErrLabelRequired   = errors.New("token label is required")
	ErrUserNotFound    = errors.New("user not found")
	ErrExpiryInThePast = errors.New("token expiry must be in the future")
)

// TokenStore manages API tokens for the mobile clients
type TokenStore struct {
	repo *Repository
}

// NewTokenStore creates a new token store
func NewTokenStore(repo *Repository) *TokenStore {
	return &TokenStore{repo: repo}
}

// GenerateToken returns a raw token and the hash stored for it.
// Format: mess_ + Base58(SHA256(32 random bytes))
func GenerateToken() (rawToken string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(randomBytes)
	rawToken = TokenPrefix + base58.Encode(sum[:])
	return rawToken, hashToken(rawToken), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// CreateUserToken creates a token on behalf of its owner, honouring the
// owner's max_tokens
func (s *TokenStore) CreateUserToken(ctx context.Context, userID int64, label string, expiresAt *time.Time) (*TokenWithRaw, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	count, err := s.repo.GetUserTokenCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= user.MaxTokens {
		return nil, fmt.Errorf("%w (%d)", ErrTokenLimit, user.MaxTokens)
	}
	return s.createToken(ctx, userID, label, false, expiresAt)
}

// CreateAdminToken creates a token for any user without the count limit
func (s *TokenStore) CreateAdminToken(ctx context.Context, userID int64, label string, expiresAt *time.Time) (*TokenWithRaw, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.createToken(ctx, userID, label, true, expiresAt)
}

func (s *TokenStore) createToken(ctx context.Context, userID int64, label string, adminCreated bool, expiresAt *time.Time) (*TokenWithRaw, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrLabelRequired
	}
	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, ErrExpiryInThePast
	}

	rawToken, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	result, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, token_hash, label, admin_created, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, tokenHash, label, adminCreated, expiresAt, now)
	if err != nil {
		return nil, err
	}
	tokenID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &TokenWithRaw{
		Token: Token{
			ID:           tokenID,
			UserID:       userID,
			Label:        label,
			AdminCreated: adminCreated,
			ExpiresAt:    expiresAt,
			CreatedAt:    now,
		},
		RawToken: rawToken,
	}, nil
}

const tokenColumns = `id, user_id, token_hash, label, admin_created, expires_at, revoked_at, created_at`

func scanToken(row rowScanner) (*Token, error) {
	var t Token
	var expiresAt, revokedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Label, &t.AdminCreated, &expiresAt, &revokedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ExpiresAt = ScanNullableTime(expiresAt)
	t.RevokedAt = ScanNullableTime(revokedAt)
	return &t, nil
}

// ValidateToken resolves a raw bearer token to its token and active user
func (s *TokenStore) ValidateToken(ctx context.Context, rawToken string) (*ValidatedToken, error) {
	if !strings.HasPrefix(rawToken, TokenPrefix) {
		return nil, ErrInvalidToken
	}

	t, err := scanToken(s.repo.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM tokens WHERE token_hash = ?", hashToken(rawToken)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if t.RevokedAt != nil {
		return nil, ErrTokenRevoked
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	user, err := s.repo.GetUserByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if user.Status != StatusActive {
		return nil, ErrUserInactive
	}
	return &ValidatedToken{Token: t, User: user}, nil
}

// ListUserTokens returns all tokens for a user, newest first
func (s *TokenStore) ListUserTokens(ctx context.Context, userID int64) ([]Token, error) {
	rows, err := s.repo.db.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM tokens WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// RevokeToken revokes one of the user's own tokens
func (s *TokenStore) RevokeToken(ctx context.Context, tokenID, userID int64) error {
	result, err := s.repo.db.ExecContext(ctx, `
		UPDATE tokens SET revoked_at = ?
		WHERE id = ? AND user_id = ? AND revoked_at IS NULL
	`, time.Now().UTC(), tokenID, userID)
	return revokeResult(result, err)
}

// AdminRevokeToken revokes any token
func (s *TokenStore) AdminRevokeToken(ctx context.Context, tokenID int64) error {
	result, err := s.repo.db.ExecContext(ctx, `
		UPDATE tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`, time.Now().UTC(), tokenID)
	return revokeResult(result, err)
}

func revokeResult(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
