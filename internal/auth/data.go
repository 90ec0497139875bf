package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"MessAPI/internal/meal"
)

// Repository provides access to the auth database
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseStudentID is the inverse of User.StudentID
func ParseStudentID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

const userColumns = `id, email, display_name, role, status, mess_preference, max_tokens, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Status, &u.MessPreference, &u.MaxTokens, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Campus Domain Operations ---

// GetAllCampusDomains returns every email domain allowed to sign in
func (r *Repository) GetAllCampusDomains(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT domain FROM campus_domains ORDER BY domain")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

// IsCampusDomain checks whether an email domain may sign in
func (r *Repository) IsCampusDomain(ctx context.Context, domain string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campus_domains WHERE domain = ?", strings.ToLower(domain)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddCampusDomain adds a domain; adding an existing one is a no-op
func (r *Repository) AddCampusDomain(ctx context.Context, domain string) error {
	_, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO campus_domains (domain) VALUES (?)", strings.ToLower(domain))
	return err
}

// RemoveCampusDomain removes a domain
func (r *Repository) RemoveCampusDomain(ctx context.Context, domain string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM campus_domains WHERE domain = ?", strings.ToLower(domain))
	return err
}

// --- User Operations ---

// GetUserByID returns a user, or nil when none exists
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail returns a user by email, or nil when none exists
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetAllUsers returns users newest first
func (r *Repository) GetAllUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser creates a student with the default veg preference
func (r *Repository) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, display_name) VALUES (?, ?)
	`, email, displayName)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// UpdateUser applies the non-nil fields in a single transaction
func (r *Repository) UpdateUser(ctx context.Context, id int64, req UserUpdateRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if req.Role != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", *req.Role, id); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET status = ? WHERE id = ?", *req.Status, id); err != nil {
			return err
		}
	}
	if req.MessPreference != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET mess_preference = ? WHERE id = ?", *req.MessPreference, id); err != nil {
			return err
		}
	}
	if req.MaxTokens != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET max_tokens = ? WHERE id = ?", *req.MaxTokens, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetMessPreference changes a student's nominal mess type
func (r *Repository) SetMessPreference(ctx context.Context, id int64, pref meal.MessType) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET mess_preference = ? WHERE id = ?", pref, id)
	return err
}

// MessPreference returns the nominal mess type of the student with the given
// selection-document ID
func (r *Repository) MessPreference(ctx context.Context, studentID string) (meal.MessType, error) {
	id, err := ParseStudentID(studentID)
	if err != nil {
		return "", err
	}
	var pref meal.MessType
	err = r.db.QueryRowContext(ctx, "SELECT mess_preference FROM users WHERE id = ?", id).Scan(&pref)
	if errors.Is(err, sql.ErrNoRows) {
		return meal.MessVeg, nil
	}
	return pref, err
}

// GetUserTokenCount returns the number of active tokens for a user
func (r *Repository) GetUserTokenCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tokens
		WHERE user_id = ? AND revoked_at IS NULL
	`, userID).Scan(&count)
	return count, err
}

// --- OAuth Identity Operations ---

// GetOAuthIdentity returns an OAuth identity by provider and provider ID
func (r *Repository) GetOAuthIdentity(ctx context.Context, provider Provider, providerID string) (*OAuthIdentity, error) {
	var o OAuthIdentity
	var accessToken, refreshToken sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, provider_id, access_token, refresh_token, created_at
		FROM oauth_identities
		WHERE provider = ? AND provider_id = ?
	`, provider, providerID).Scan(&o.ID, &o.UserID, &o.Provider, &o.ProviderID, &accessToken, &refreshToken, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.AccessToken = ScanNullableString(accessToken)
	o.RefreshToken = ScanNullableString(refreshToken)
	return &o, nil
}

// UpsertOAuthIdentity links a provider account to a user, refreshing the
// stored provider tokens if the link already exists
func (r *Repository) UpsertOAuthIdentity(ctx context.Context, userID int64, provider Provider, providerID, accessToken, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_identities (user_id, provider, provider_id, access_token, refresh_token)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET access_token = excluded.access_token, refresh_token = excluded.refresh_token
	`, userID, provider, providerID, accessToken, refreshToken)
	return err
}
