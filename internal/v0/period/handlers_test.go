package period

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestGetCurrentHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTestRepo(t)
	if _, err := repo.Create(context.Background(), CreateRequest{Label: "October", StartingDate: "2026-10-01", EndingDate: "2026-10-31"}); err != nil {
		t.Fatal(err)
	}

	h := NewHandler(repo)
	h.now = func() time.Time { return day("2026-10-17") }
	r := gin.New()
	r.GET("/periods/current", h.GetCurrent)
	r.POST("/periods", h.Create)

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
	}{
		{"today", http.MethodGet, "/periods/current", "", http.StatusOK},
		{"explicit date", http.MethodGet, "/periods/current?date=05102026", "", http.StatusOK},
		{"no period", http.MethodGet, "/periods/current?date=05112026", "", http.StatusNotFound},
		{"bad date", http.MethodGet, "/periods/current?date=2026-10-05", "", http.StatusBadRequest},
		{"create overlap", http.MethodPost, "/periods", `{"label":"x","startingDate":"2026-10-20"}`, http.StatusConflict},
		{"create invalid", http.MethodPost, "/periods", `{"label":"x","startingDate":"tomorrow"}`, http.StatusBadRequest},
		{"create", http.MethodPost, "/periods", `{"label":"November","startingDate":"2026-11-01","endingDate":"2026-11-30"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
