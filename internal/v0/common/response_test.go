package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCreateAPIResponse(t *testing.T) {
	resp := CreateAPIResponse("x", nil, "")
	if resp.Metadata.RequestID == "" {
		t.Error("expected a generated request ID")
	}
	if resp.Errors == nil {
		t.Error("errors must serialise as [] not null")
	}
	if resp.Metadata.Version != "v0" {
		t.Errorf("version = %q, want v0", resp.Metadata.Version)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		Fail(c, http.StatusTeapot, "short and stout")
	})

	const id = "0b9d2c9e-6f1c-4f0a-9b55-8d6f2b0f9e11"
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", w.Code)
	}
	if got := w.Header().Get(HeaderRequestID); got != id {
		t.Errorf("response header = %q, want %q", got, id)
	}

	var body APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Metadata.RequestID != id {
		t.Errorf("envelope request ID = %q, want %q", body.Metadata.RequestID, id)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "short and stout" {
		t.Errorf("errors = %v", body.Errors)
	}
}

func TestRequestIDReplacesGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { Success(c, http.StatusOK, nil) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got == "not-a-uuid" || got == "" {
		t.Errorf("response header = %q, want a fresh UUID", got)
	}
}
