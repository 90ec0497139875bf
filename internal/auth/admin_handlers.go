package auth

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"MessAPI/internal/meal"
	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles account administration for mess staff
type AdminHandler struct {
	repo         *Repository
	tokenStore   *TokenStore
	sessionStore *SessionStore
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(repo *Repository, tokenStore *TokenStore, sessionStore *SessionStore) *AdminHandler {
	return &AdminHandler{
		repo:         repo,
		tokenStore:   tokenStore,
		sessionStore: sessionStore,
	}
}

// --- Campus Domain Management ---

// ListCampusDomains
// GET /admin/campus-domains
func (h *AdminHandler) ListCampusDomains(c *gin.Context) {
	domains, err := h.repo.GetAllCampusDomains(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to list domains")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"domains": domains})
}

// AddCampusDomain
// POST /admin/campus-domains
func (h *AdminHandler) AddCampusDomain(c *gin.Context) {
	var req DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	domain := strings.TrimPrefix(strings.TrimSpace(req.Domain), "@")
	if domain == "" || strings.Contains(domain, "@") {
		common.Fail(c, http.StatusBadRequest, "invalid domain")
		return
	}

	if err := h.repo.AddCampusDomain(c.Request.Context(), domain); err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to add domain")
		return
	}
	common.Success(c, http.StatusCreated, gin.H{"domain": strings.ToLower(domain)})
}

// RemoveCampusDomain only stops new sign-ups; existing accounts keep access
// DELETE /admin/campus-domains/:domain
func (h *AdminHandler) RemoveCampusDomain(c *gin.Context) {
	if err := h.repo.RemoveCampusDomain(c.Request.Context(), c.Param("domain")); err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to remove domain")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "domain removed"})
}

// --- User Management ---

// ListUsers
// GET /admin/users?limit=&offset=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.repo.GetAllUsers(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to list users")
		return
	}
	common.Success(c, http.StatusOK, gin.H{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUser
// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	common.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateUser changes role, status, preference or token allowance. Suspending
// a user also ends their sessions.
// PATCH /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role != nil && *req.Role != RoleStudent && *req.Role != RoleAdmin {
		common.Fail(c, http.StatusBadRequest, "invalid role")
		return
	}
	if req.Status != nil && *req.Status != StatusActive && *req.Status != StatusSuspended {
		common.Fail(c, http.StatusBadRequest, "invalid status")
		return
	}
	if req.MessPreference != nil {
		if _, err := meal.ParseMessType(string(*req.MessPreference)); err != nil {
			common.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.MaxTokens != nil && *req.MaxTokens < 0 {
		common.Fail(c, http.StatusBadRequest, "maxTokens must not be negative")
		return
	}

	if err := h.repo.UpdateUser(ctx, user.ID, req); err != nil {
		log.Printf("auth: update user %d: %v", user.ID, err)
		common.Fail(c, http.StatusInternalServerError, "failed to update user")
		return
	}
	if req.Status != nil && *req.Status == StatusSuspended {
		if err := h.sessionStore.DeleteUserSessions(ctx, user.ID); err != nil {
			log.Printf("auth: end sessions of %d: %v", user.ID, err)
		}
	}

	updated, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to get user")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"user": updated})
}

// --- Token Management ---

// CreateUserToken issues a token on behalf of a user, ignoring max_tokens
// POST /admin/users/:id/tokens
func (h *AdminHandler) CreateUserToken(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokenStore.CreateAdminToken(c.Request.Context(), user.ID, req.Label, req.ExpiresAt)
	if err != nil {
		common.Fail(c, tokenErrorStatus(err), err.Error())
		return
	}
	common.Success(c, http.StatusCreated, gin.H{
		"token":   token.RawToken,
		"details": token.Token,
	})
}

// ListUserTokens
// GET /admin/users/:id/tokens
func (h *AdminHandler) ListUserTokens(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// RevokeToken revokes any token
// DELETE /admin/tokens/:id
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	tokenID, err := parseID(c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid token ID")
		return
	}
	if err := h.tokenStore.AdminRevokeToken(c.Request.Context(), tokenID); err != nil {
		common.Fail(c, tokenErrorStatus(err), err.Error())
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "token revoked"})
}

// loadUser resolves :id or writes the error response
func (h *AdminHandler) loadUser(c *gin.Context) (*User, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid user ID")
		return nil, false
	}
	user, err := h.repo.GetUserByID(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to get user")
		return nil, false
	}
	if user == nil {
		common.Fail(c, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
