package selection

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"MessAPI/internal/auth"
	"MessAPI/internal/meal"
	"MessAPI/internal/v0/common"
	"MessAPI/internal/v0/period"

	"github.com/gin-gonic/gin"
)

// StreamKeepAlive is how often an idle stream sends a ping event
const StreamKeepAlive = 25 * time.Second

// ActivityLog lists recorded selection events
type ActivityLog interface {
	List(ctx context.Context, studentID string, limit int) ([]Event, error)
}

// Handler serves the selection endpoints. activity and hub may be nil.
type Handler struct {
	service  *Service
	activity ActivityLog
	hub      *Hub
}

func NewHandler(service *Service, activity ActivityLog, hub *Hub) *Handler {
	return &Handler{service: service, activity: activity, hub: hub}
}

type addRequest struct {
	MealID string `json:"mealId" binding:"required"`
}

// writeError maps service errors onto HTTP statuses
func writeError(c *gin.Context, err error) {
	if r, ok := meal.AsRejection(err); ok {
		common.FailWithData(c, http.StatusConflict, r, r.Error())
		return
	}
	var pe *PersistenceError
	switch {
	case errors.Is(err, ErrUnknownMeal):
		common.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, period.ErrNoOpenPeriod), errors.Is(err, ErrVersionConflict):
		common.Fail(c, http.StatusConflict, err.Error())
	case errors.As(err, &pe):
		log.Printf("selection: %v", err)
		common.Fail(c, http.StatusServiceUnavailable, "selections could not be saved, try again")
	default:
		log.Printf("selection: %v", err)
		common.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

func studentID(c *gin.Context) (string, bool) {
	id, ok := auth.StudentID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
	}
	return id, ok
}

// GetMine returns the caller's selections and usage counters
// GET /api/v0/selections/me
func (h *Handler) GetMine(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	view, err := h.service.View(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusOK, view)
}

// AddItem
// POST /api/v0/selections/me/items
func (h *Handler) AddItem(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.Add(c.Request.Context(), id, req.MealID)
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusCreated, outcome)
}

// RemoveItem
// DELETE /api/v0/selections/me/items/:mealId
func (h *Handler) RemoveItem(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	doc, removed, err := h.service.Remove(c.Request.Context(), id, c.Param("mealId"))
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusOK, gin.H{"document": doc, "removed": removed})
}

// ClearMine
// DELETE /api/v0/selections/me
func (h *Handler) ClearMine(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	doc, cleared, err := h.service.Clear(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusOK, gin.H{"document": doc, "cleared": cleared})
}

// CheckLimit
// GET /api/v0/selections/me/limits?category=&messType=&subcategory=
func (h *Handler) CheckLimit(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	category, err := meal.ParseCategory(c.Query("category"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	messType, err := meal.ParseMessType(c.Query("messType"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	subcategory := c.Query("subcategory")
	if subcategory == "" {
		common.Fail(c, http.StatusBadRequest, "subcategory is required")
		return
	}

	status, err := h.service.CheckLimit(c.Request.Context(), id, category, messType, subcategory)
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusOK, status)
}

// Stream pushes the caller's document as server-sent events: the current
// view first, then every saved change
// GET /api/v0/selections/me/stream
func (h *Handler) Stream(c *gin.Context) {
	if h.hub == nil {
		common.Fail(c, http.StatusNotImplemented, "streaming is not enabled")
		return
	}
	id, ok := studentID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	updates, cancel := h.hub.Subscribe(id)
	defer cancel()

	view, err := h.service.View(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("selection", view)
	c.Writer.Flush()

	keepAlive := time.NewTicker(StreamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-updates:
			c.SSEvent("selection", View{Document: doc, Usage: h.service.Usage(doc.SelectionSet)})
			c.Writer.Flush()
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

// GetQuotas lists every quota row
// GET /api/v0/quotas
func (h *Handler) GetQuotas(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{"quotas": h.service.Quotas().Rows()})
}

func adminStudentID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if _, err := auth.ParseStudentID(raw); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid student ID")
		return "", false
	}
	return raw, true
}

// GetStudentSelections
// GET /api/admin/students/:id/selections
func (h *Handler) GetStudentSelections(c *gin.Context) {
	id, ok := adminStudentID(c)
	if !ok {
		return
	}
	view, err := h.service.View(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	common.Success(c, http.StatusOK, view)
}

// GetStudentActivity
// GET /api/admin/students/:id/activity?limit=
func (h *Handler) GetStudentActivity(c *gin.Context) {
	if h.activity == nil {
		common.Fail(c, http.StatusNotImplemented, "activity log is not enabled")
		return
	}
	id, ok := adminStudentID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	events, err := h.activity.List(c.Request.Context(), id, limit)
	if err != nil {
		log.Printf("selection: list activity for %s: %v", id, err)
		common.Fail(c, http.StatusInternalServerError, "failed to list activity")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"events": events})
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
