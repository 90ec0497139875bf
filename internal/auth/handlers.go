package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"MessAPI/internal/meal"
	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

const OAuthStateCookieName = "mess_oauth_state"

var ErrDomainNotAllowed = errors.New("email domain is not a campus domain")

// Handler handles sign-in and self-service account endpoints
type Handler struct {
	repo         *Repository
	provider     IdentityProvider
	stateStore   *OAuthStateStore
	sessionStore *SessionStore
	tokenStore   *TokenStore
}

// NewHandler creates a new auth handler. provider may be nil when sign-in
// is not configured.
func NewHandler(repo *Repository, provider IdentityProvider, stateStore *OAuthStateStore, sessionStore *SessionStore, tokenStore *TokenStore) *Handler {
	return &Handler{
		repo:         repo,
		provider:     provider,
		stateStore:   stateStore,
		sessionStore: sessionStore,
		tokenStore:   tokenStore,
	}
}

func (h *Handler) checkProvider(c *gin.Context) bool {
	if h.provider == nil || Provider(c.Param("provider")) != h.provider.Name() {
		common.Fail(c, http.StatusBadRequest, "unsupported or unconfigured provider")
		return false
	}
	return true
}

// Login starts the OAuth flow
// GET /auth/login/:provider
func (h *Handler) Login(c *gin.Context) {
	if !h.checkProvider(c) {
		return
	}

	state, err := h.stateStore.CreateState(c.Request.Context())
	if err != nil {
		log.Printf("auth: create oauth state: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to create auth state")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookieName, state, int(OAuthStateExpiry.Seconds()), "/", "", h.sessionStore.secureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, h.provider.AuthCodeURL(state))
}

// Callback finishes the OAuth flow and opens a session
// GET /auth/callback/:provider
func (h *Handler) Callback(c *gin.Context) {
	if !h.checkProvider(c) {
		return
	}
	ctx := c.Request.Context()

	queryState := c.Query("state")
	cookieState, err := c.Cookie(OAuthStateCookieName)
	if err != nil || cookieState == "" {
		common.Fail(c, http.StatusBadRequest, "missing OAuth state cookie")
		return
	}
	if queryState != cookieState {
		common.Fail(c, http.StatusBadRequest, "OAuth state mismatch")
		return
	}
	if ok, err := h.stateStore.ConsumeState(ctx, queryState); err != nil || !ok {
		common.Fail(c, http.StatusBadRequest, "invalid or expired OAuth state")
		return
	}
	c.SetCookie(OAuthStateCookieName, "", -1, "/", "", h.sessionStore.secureCookie, true)

	if errMsg := c.Query("error"); errMsg != "" {
		common.Fail(c, http.StatusBadRequest, "OAuth error: "+errMsg)
		return
	}
	code := c.Query("code")
	if code == "" {
		common.Fail(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	info, err := h.provider.Identify(ctx, code)
	if err != nil {
		log.Printf("auth: identify with %s: %v", h.provider.Name(), err)
		common.Fail(c, http.StatusBadGateway, "failed to get user info")
		return
	}

	user, err := h.findOrCreateUser(c, info)
	if errors.Is(err, ErrDomainNotAllowed) {
		common.Fail(c, http.StatusForbidden, "sign in with your campus account")
		return
	}
	if err != nil {
		log.Printf("auth: find or create user %s: %v", info.Email, err)
		common.Fail(c, http.StatusInternalServerError, "failed to create user")
		return
	}
	if user.Status != StatusActive {
		common.Fail(c, http.StatusForbidden, "account is "+string(user.Status))
		return
	}

	session, err := h.sessionStore.CreateSession(ctx, user.ID)
	if err != nil {
		log.Printf("auth: create session: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessionStore.SetSessionCookie(c, session.ID)

	common.Success(c, http.StatusOK, gin.H{
		"message": "authenticated successfully",
		"user":    user,
	})
}

// findOrCreateUser links the provider identity to an account. Existing
// accounts may always sign in; new ones need a verified campus email.
func (h *Handler) findOrCreateUser(c *gin.Context, info *OAuthUserInfo) (*User, error) {
	ctx := c.Request.Context()
	provider := h.provider.Name()

	identity, err := h.repo.GetOAuthIdentity(ctx, provider, info.ProviderID)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		if err := h.repo.UpsertOAuthIdentity(ctx, identity.UserID, provider, info.ProviderID, info.AccessToken, info.RefreshToken); err != nil {
			return nil, err
		}
		return h.repo.GetUserByID(ctx, identity.UserID)
	}

	user, err := h.repo.GetUserByEmail(ctx, info.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		allowed, err := h.repo.IsCampusDomain(ctx, info.Domain())
		if err != nil {
			return nil, err
		}
		if !allowed || !info.EmailVerified {
			return nil, ErrDomainNotAllowed
		}
		user, err = h.repo.CreateUser(ctx, info.Email, info.DisplayName)
		if err != nil {
			return nil, err
		}
	}

	if err := h.repo.UpsertOAuthIdentity(ctx, user.ID, provider, info.ProviderID, info.AccessToken, info.RefreshToken); err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the current authenticated user
// GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdatePreference lets a student switch between veg, non-veg and special.
// Selections already made are untouched; the next fresh set uses the new
// preference.
// PATCH /auth/me/preference
func (h *Handler) UpdatePreference(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req PreferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pref, err := meal.ParseMessType(string(req.MessPreference))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.SetMessPreference(c.Request.Context(), user.ID, pref); err != nil {
		log.Printf("auth: set preference for %d: %v", user.ID, err)
		common.Fail(c, http.StatusInternalServerError, "failed to update preference")
		return
	}
	user.MessPreference = pref
	common.Success(c, http.StatusOK, gin.H{"user": user})
}

// Logout ends the current session
// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if sessionID, err := h.sessionStore.GetSessionFromCookie(c); err == nil && sessionID != "" {
		if err := h.sessionStore.DeleteSession(c.Request.Context(), sessionID); err != nil {
			log.Printf("auth: delete session: %v", err)
		}
	}
	h.sessionStore.ClearSessionCookie(c)
	common.Success(c, http.StatusOK, gin.H{"message": "logged out successfully"})
}

// ListTokens returns all tokens for the current user
// GET /auth/tokens
func (h *Handler) ListTokens(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// CreateToken issues a bearer token for the mobile app
// POST /auth/tokens
func (h *Handler) CreateToken(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokenStore.CreateUserToken(c.Request.Context(), user.ID, req.Label, req.ExpiresAt)
	if err != nil {
		common.Fail(c, tokenErrorStatus(err), err.Error())
		return
	}

	common.Success(c, http.StatusCreated, gin.H{
		"token":   token.RawToken,
		"details": token.Token,
		"message": "Token created. Save this token now - it will not be shown again.",
	})
}

// RevokeToken revokes a token owned by the current user
// DELETE /auth/tokens/:id
func (h *Handler) RevokeToken(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	tokenID, err := parseID(c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokenStore.RevokeToken(c.Request.Context(), tokenID, user.ID); err != nil {
		common.Fail(c, tokenErrorStatus(err), err.Error())
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "token revoked"})
}

func tokenErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTokenLimit):
		return http.StatusConflict
	case errors.Is(err, ErrLabelRequired), errors.Is(err, ErrExpiryInThePast):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid ID: " + s)
	}
	return id, nil
}
