package common

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"time"

	v0 "MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	Uptime    string            `json:"uptime"`
	Databases map[string]string `json:"databases"`
	Healthy   bool              `json:"healthy"`
}

// Handler reports liveness of the process and its databases
type Handler struct {
	startTime time.Time
	databases map[string]*sql.DB
}

func NewHandler(databases map[string]*sql.DB) *Handler {
	return &Handler{startTime: time.Now(), databases: databases}
}

func (h *Handler) uptime() time.Duration {
	return time.Since(h.startTime)
}

// ping measures a round trip to each database; failures are reported in place
// of the latency
func (h *Handler) ping(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		start := time.Now()
		if err := h.databases[name].PingContext(ctx); err != nil {
			out[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		out[name] = time.Since(start).String()
	}
	return out, healthy
}

// Status
// GET /api/status
func (h *Handler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbs, healthy := h.ping(ctx)
	data := StatusResponse{
		Uptime:    h.uptime().Truncate(time.Second).String(),
		Databases: dbs,
		Healthy:   healthy,
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	v0.Success(c, status, data)
}

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/status", h.Status)
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
