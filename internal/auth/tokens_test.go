package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"MessAPI/internal/databases"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := databases.OpenAndMigrate(t.TempDir(), databases.Auth)
	if err != nil {
		t.Fatalf("open auth database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func newTestUser(t *testing.T, repo *Repository, email string) *User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), email, "Test Student")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestGenerateToken(t *testing.T) {
	raw, hash, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, TokenPrefix) {
		t.Errorf("token %q lacks prefix %q", raw, TokenPrefix)
	}
	if hash != hashToken(raw) {
		t.Error("hash does not match raw token")
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}

	other, _, _ := GenerateToken()
	if other == raw {
		t.Error("two generated tokens are equal")
	}
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	store := NewTokenStore(repo)
	user := newTestUser(t, repo, "a@campus.edu")

	created, err := store.CreateUserToken(ctx, user.ID, "  phone  ", nil)
	if err != nil {
		t.Fatalf("CreateUserToken: %v", err)
	}
	if created.Label != "phone" {
		t.Errorf("label = %q, want trimmed", created.Label)
	}

	validated, err := store.ValidateToken(ctx, created.RawToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if validated.User.ID != user.ID {
		t.Errorf("validated user = %d, want %d", validated.User.ID, user.ID)
	}

	tokens, err := store.ListUserTokens(ctx, user.ID)
	if err != nil || len(tokens) != 1 {
		t.Fatalf("ListUserTokens = %v, %v", tokens, err)
	}

	if err := store.RevokeToken(ctx, created.ID, user.ID+1); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("revoking someone else's token: err = %v", err)
	}
	if err := store.RevokeToken(ctx, created.ID, user.ID); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if _, err := store.ValidateToken(ctx, created.RawToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("revoked token: err = %v, want ErrTokenRevoked", err)
	}
	if err := store.AdminRevokeToken(ctx, created.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second revoke: err = %v, want ErrTokenNotFound", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	store := NewTokenStore(repo)
	user := newTestUser(t, repo, "b@campus.edu")

	expiring, err := store.CreateUserToken(ctx, user.ID, "soon", ptrTime(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.DB().Exec("UPDATE tokens SET expires_at = ? WHERE id = ?", time.Now().UTC().Add(-time.Minute), expiring.ID); err != nil {
		t.Fatal(err)
	}

	active, err := store.CreateUserToken(ctx, user.ID, "active", nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		raw     string
		suspend bool
		want    error
	}{
		{"wrong prefix", "api_abc", false, ErrInvalidToken},
		{"unknown token", TokenPrefix + "doesnotexist", false, ErrInvalidToken},
		{"expired", expiring.RawToken, false, ErrTokenExpired},
		{"suspended owner", active.RawToken, true, ErrUserInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.suspend {
				status := StatusSuspended
				if err := repo.UpdateUser(ctx, user.ID, UserUpdateRequest{Status: &status}); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := store.ValidateToken(ctx, tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateTokenLimits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	store := NewTokenStore(repo)
	user := newTestUser(t, repo, "c@campus.edu")

	one := 1
	if err := repo.UpdateUser(ctx, user.ID, UserUpdateRequest{MaxTokens: &one}); err != nil {
		t.Fatal(err)
	}

	if _, err := store.CreateUserToken(ctx, user.ID, "first", nil); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if _, err := store.CreateUserToken(ctx, user.ID, "second", nil); !errors.Is(err, ErrTokenLimit) {
		t.Errorf("second token: err = %v, want ErrTokenLimit", err)
	}
	if _, err := store.CreateAdminToken(ctx, user.ID, "issued by staff", nil); err != nil {
		t.Errorf("admin token ignores the limit: %v", err)
	}

	if _, err := store.CreateAdminToken(ctx, user.ID, "   ", nil); !errors.Is(err, ErrLabelRequired) {
		t.Errorf("blank label: err = %v", err)
	}
	if _, err := store.CreateAdminToken(ctx, user.ID, "late", ptrTime(time.Now().Add(-time.Hour))); !errors.Is(err, ErrExpiryInThePast) {
		t.Errorf("past expiry: err = %v", err)
	}
	if _, err := store.CreateUserToken(ctx, 9999, "ghost", nil); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
