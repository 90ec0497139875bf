package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextKeyUser  = "auth_user"
	ContextKeyToken = "auth_token"

	HeaderAuthorization = "Authorization"
)

// Middleware provides authentication and authorization middleware
type Middleware struct {
	tokenStore   *TokenStore
	sessionStore *SessionStore
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokenStore *TokenStore, sessionStore *SessionStore) *Middleware {
	return &Middleware{
		tokenStore:   tokenStore,
		sessionStore: sessionStore,
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader(HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// authenticateToken validates the bearer token and stores the user. It
// writes the error response itself and reports whether to continue.
func (m *Middleware) authenticateToken(c *gin.Context, rawToken string) bool {
	validated, err := m.tokenStore.ValidateToken(c.Request.Context(), rawToken)
	switch {
	case errors.Is(err, ErrUserInactive):
		common.Abort(c, http.StatusForbidden, err.Error())
		return false
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked), errors.Is(err, ErrTokenExpired):
		common.Abort(c, http.StatusUnauthorized, err.Error())
		return false
	case err != nil:
		log.Printf("auth: validate token: %v", err)
		common.Abort(c, http.StatusInternalServerError, "failed to validate token")
		return false
	}
	c.Set(ContextKeyUser, validated.User)
	c.Set(ContextKeyToken, validated.Token)
	return true
}

// authenticateSession loads the cookie session and stores the user
func (m *Middleware) authenticateSession(c *gin.Context) bool {
	sessionID, err := m.sessionStore.GetSessionFromCookie(c)
	if err != nil || sessionID == "" {
		common.Abort(c, http.StatusUnauthorized, "not authenticated")
		return false
	}

	user, err := m.sessionStore.GetUserFromSession(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("auth: load session: %v", err)
		common.Abort(c, http.StatusInternalServerError, "failed to load session")
		return false
	}
	if user == nil {
		m.sessionStore.ClearSessionCookie(c)
		common.Abort(c, http.StatusUnauthorized, "session expired or invalid")
		return false
	}
	if user.Status != StatusActive {
		m.sessionStore.ClearSessionCookie(c)
		common.Abort(c, http.StatusForbidden, "account is "+string(user.Status))
		return false
	}

	c.Set(ContextKeyUser, user)
	return true
}

// RequireToken accepts only bearer tokens
func (m *Middleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			common.Abort(c, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		if m.authenticateToken(c, rawToken) {
			c.Next()
		}
	}
}

// RequireSession accepts only the web session cookie
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticateSession(c) {
			c.Next()
		}
	}
}

// RequireAuth accepts a bearer token when one is sent and falls back to the
// session cookie otherwise
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawToken, ok := bearerToken(c); ok {
			if m.authenticateToken(c, rawToken) {
				c.Next()
			}
			return
		}
		if m.authenticateSession(c) {
			c.Next()
		}
	}
}

// RequireRole checks the authenticated user's role; admins pass every check
func (m *Middleware) RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			common.Abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		if user.Role != role && user.Role != RoleAdmin {
			common.Abort(c, http.StatusForbidden, "requires "+string(role)+" role")
			return
		}
		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) *User {
	userVal, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := userVal.(*User)
	return user
}

// GetTokenFromContext retrieves the validated token from the context
func GetTokenFromContext(c *gin.Context) *Token {
	tokenVal, exists := c.Get(ContextKeyToken)
	if !exists {
		return nil
	}
	token, _ := tokenVal.(*Token)
	return token
}

// StudentID returns the selection-document key of the authenticated user
func StudentID(c *gin.Context) (string, bool) {
	user := GetUserFromContext(c)
	if user == nil {
		return "", false
	}
	return user.StudentID(), true
}
