package selection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MessAPI/internal/auth"
	"MessAPI/internal/meal"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []string        `json:"errors"`
}

func asStudent(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUser, &auth.User{ID: id, Role: auth.RoleStudent})
		c.Next()
	}
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/quotas", h.GetQuotas)

	me := r.Group("/selections/me", asStudent(7))
	me.GET("", h.GetMine)
	me.DELETE("", h.ClearMine)
	me.POST("/items", h.AddItem)
	me.DELETE("/items/:mealId", h.RemoveItem)
	me.GET("/limits", h.CheckLimit)
	me.GET("/stream", h.Stream)

	r.GET("/anonymous", h.GetMine)
	r.GET("/students/:id/selections", h.GetStudentSelections)
	r.GET("/students/:id/activity", h.GetStudentActivity)
	return r
}

func do(r *gin.Engine, method, url, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHandlersSelectionFlow(t *testing.T) {
	f := newFixture(t, false)
	activity := NewActivityRecorder(newActivityDB(t), 0)
	r := newTestRouter(NewHandler(f.svc, activity, f.hub))

	rice := f.item(t, "Jeera Rice", meal.CategoryLunch, "Rice", meal.MessVeg)
	chicken := f.item(t, "Chicken Biryani", meal.CategoryLunch, "Rice", meal.MessNonVeg)

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		status int
		check  func(t *testing.T, data json.RawMessage)
	}{
		{name: "unauthenticated", method: "GET", url: "/anonymous", status: http.StatusUnauthorized},
		{name: "empty view", method: "GET", url: "/selections/me", status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			var v View
			if err := json.Unmarshal(data, &v); err != nil {
				t.Fatal(err)
			}
			if v.Document == nil || v.Document.Len() != 0 || v.Document.MessType != meal.MessVeg || v.Period == nil {
				t.Errorf("view = %s", data)
			}
		}},
		{name: "missing body", method: "POST", url: "/selections/me/items", body: `{}`, status: http.StatusBadRequest},
		{name: "unknown meal", method: "POST", url: "/selections/me/items", body: `{"mealId":"nope"}`, status: http.StatusNotFound},
		{name: "add", method: "POST", url: "/selections/me/items", body: `{"mealId":"` + rice + `"}`, status: http.StatusCreated, check: func(t *testing.T, data json.RawMessage) {
			var out AddOutcome
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if out.Added.MealID != rice || out.Document.Version != 1 {
				t.Errorf("outcome = %s", data)
			}
		}},
		{name: "duplicate", method: "POST", url: "/selections/me/items", body: `{"mealId":"` + rice + `"}`, status: http.StatusConflict, check: func(t *testing.T, data json.RawMessage) {
			var r meal.Rejection
			if err := json.Unmarshal(data, &r); err != nil {
				t.Fatal(err)
			}
			if r.Reason != meal.ReasonAlreadySelected {
				t.Errorf("reason = %s", r.Reason)
			}
		}},
		{name: "conflict", method: "POST", url: "/selections/me/items", body: `{"mealId":"` + chicken + `"}`, status: http.StatusConflict, check: func(t *testing.T, data json.RawMessage) {
			if !strings.Contains(string(data), string(meal.ReasonMessTypeConflict)) {
				t.Errorf("data = %s", data)
			}
		}},
		{name: "limits", method: "GET", url: "/selections/me/limits?category=lunch&messType=veg&subcategory=Rice", status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			var s meal.LimitStatus
			if err := json.Unmarshal(data, &s); err != nil {
				t.Fatal(err)
			}
			if s.CurrentCount != 1 || s.MaxAllowed != 2 || s.HasReachedLimit {
				t.Errorf("status = %+v", s)
			}
		}},
		{name: "limits bad category", method: "GET", url: "/selections/me/limits?category=brunch&messType=veg&subcategory=Rice", status: http.StatusBadRequest},
		{name: "limits no subcategory", method: "GET", url: "/selections/me/limits?category=lunch&messType=veg", status: http.StatusBadRequest},
		{name: "remove absent", method: "DELETE", url: "/selections/me/items/" + chicken, status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			if !strings.Contains(string(data), `"removed":false`) {
				t.Errorf("data = %s", data)
			}
		}},
		{name: "remove", method: "DELETE", url: "/selections/me/items/" + rice, status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			if !strings.Contains(string(data), `"removed":true`) {
				t.Errorf("data = %s", data)
			}
		}},
		{name: "clear", method: "DELETE", url: "/selections/me", status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			if !strings.Contains(string(data), `"cleared":0`) {
				t.Errorf("data = %s", data)
			}
		}},
		{name: "quotas", method: "GET", url: "/quotas", status: http.StatusOK, check: func(t *testing.T, data json.RawMessage) {
			var body struct {
				Quotas []meal.QuotaRow `json:"quotas"`
			}
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatal(err)
			}
			if len(body.Quotas) != len(testQuotas().Rows()) {
				t.Errorf("got %d quota rows", len(body.Quotas))
			}
		}},
		{name: "admin view", method: "GET", url: "/students/7/selections", status: http.StatusOK},
		{name: "admin bad id", method: "GET", url: "/students/abc/selections", status: http.StatusBadRequest},
		{name: "admin activity", method: "GET", url: "/students/7/activity?limit=10", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(r, tt.method, tt.url, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status >= 400 && len(env.Errors) == 0 {
				t.Error("error response without errors")
			}
			if tt.check != nil {
				tt.check(t, env.Data)
			}
		})
	}
}

func TestHandlersErrorStatuses(t *testing.T) {
	f := newFixture(t, false)
	rice := f.item(t, "Jeera Rice", meal.CategoryLunch, "Rice", meal.MessVeg)
	body := `{"mealId":"` + rice + `"}`

	broken := f.newService(failingStore{Store: f.repo, err: errors.New("disk full")}, false)
	w, _ := do(newTestRouter(NewHandler(broken, nil, nil)), "POST", "/selections/me/items", body)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("persistence failure: status = %d", w.Code)
	}

	closed := f.newService(f.repo, false)
	closed.now = func() time.Time { return testNow.AddDate(1, 0, 0) }
	r := newTestRouter(NewHandler(closed, nil, nil))
	if w, _ := do(r, "POST", "/selections/me/items", body); w.Code != http.StatusConflict {
		t.Errorf("no open period: status = %d", w.Code)
	}
	if w, _ := do(r, "GET", "/selections/me/stream", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("stream without hub: status = %d", w.Code)
	}
	if w, _ := do(r, "GET", "/students/7/activity", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("activity without recorder: status = %d", w.Code)
	}
}

// flushRecorder signals every flush so a test can wait for streamed events
type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed chan struct{}
}

func (f *flushRecorder) Flush() {
	f.ResponseRecorder.Flush()
	select {
	case f.flushed <- struct{}{}:
	default:
	}
}

func TestHandlersStream(t *testing.T) {
	f := newFixture(t, false)
	r := newTestRouter(NewHandler(f.svc, nil, f.hub))
	idli := f.item(t, "Idli", meal.CategoryBreakfast, "Tiffin", meal.MessVeg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest("GET", "/selections/me/stream", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder(), flushed: make(chan struct{}, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	wait := func(what string) {
		t.Helper()
		select {
		case <-w.flushed:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	wait("initial event")

	if _, err := f.svc.Add(context.Background(), "7", idli); err != nil {
		t.Fatal(err)
	}
	wait("update event")

	cancel()
	<-done

	body := w.Body.String()
	if n := strings.Count(body, "event:selection"); n != 2 {
		t.Errorf("got %d selection events:\n%s", n, body)
	}
	if !strings.Contains(body, idli) {
		t.Errorf("update event does not carry the added meal:\n%s", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}
	if n := f.hub.Subscribers("7"); n != 0 {
		t.Errorf("stream left %d subscribers", n)
	}
}
