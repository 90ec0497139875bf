package period

import (
	"errors"
	"log"
	"net/http"
	"time"

	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

// Handler holds the period repository
type Handler struct {
	repo *Repository
	now  func() time.Time
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// GetCurrent returns the period open today, or on ?date=DDMMYYYY
// GET /api/v0/periods/current
func (h *Handler) GetCurrent(c *gin.Context) {
	day := h.now()
	if dateParameter := c.Query("date"); dateParameter != "" {
		parsed, err := time.Parse("02012006", dateParameter)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, "Invalid date format. Please use DDMMYYYY")
			return
		}
		day = parsed
	}

	p, err := h.repo.Current(c.Request.Context(), day)
	if errors.Is(err, ErrNoOpenPeriod) {
		common.Fail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("period: current: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to load period")
		return
	}
	common.Success(c, http.StatusOK, p)
}

// List
// GET /api/admin/periods
func (h *Handler) List(c *gin.Context) {
	periods, err := h.repo.List(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to list periods")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"periods": periods})
}

// Create
// POST /api/admin/periods
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.repo.Create(c.Request.Context(), req)
	if errors.Is(err, ErrOverlap) {
		common.Fail(c, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, ErrInvalid) {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("period: create: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to create period")
		return
	}
	common.Success(c, http.StatusCreated, p)
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
