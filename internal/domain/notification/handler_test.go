package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

func newTestServer(t *testing.T, repo *memRepo, callerEmail string) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/api/v1", auth.DevMiddleware(callerEmail, "patient"))
	NewHandler(newTestService(repo)).Register(g)
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListAndCount(t *testing.T) {
	repo := &memRepo{items: []Notification{
		{ID: "n1", RecipientEmail: "ana@example.com", Subject: "a"},
		{ID: "n2", RecipientEmail: "ana@example.com", Subject: "b", Silenced: true},
		{ID: "n3", RecipientEmail: "bob@example.com", Subject: "c"},
	}}
	e := newTestServer(t, repo, "ana@example.com")

	rec := doRequest(e, http.MethodGet, "/api/v1/notifications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var page struct {
		Data  []Notification `json:"data"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 2 || page.Total != 2 {
		t.Errorf("list returned %d items (total %d), want 2", len(page.Data), page.Total)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/notifications?limit=1&offset=1", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "n2" {
		t.Errorf("second page = %+v", page.Data)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/notifications/count", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("count status = %d", rec.Code)
	}
	var count map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatal(err)
	}
	if count["count"] != 1 {
		t.Errorf("count = %d, want 1 (silenced excluded)", count["count"])
	}
}

func TestHandler_GetOwnership(t *testing.T) {
	repo := &memRepo{items: []Notification{
		{ID: "n1", RecipientEmail: "Ana@Example.com"},
		{ID: "n2", RecipientEmail: "bob@example.com"},
	}}
	e := newTestServer(t, repo, "ana@example.com")

	if rec := doRequest(e, http.MethodGet, "/api/v1/notifications/n1", ""); rec.Code != http.StatusOK {
		t.Errorf("own notification status = %d, want 200 (case-insensitive match)", rec.Code)
	}
	if rec := doRequest(e, http.MethodGet, "/api/v1/notifications/n2", ""); rec.Code != http.StatusForbidden {
		t.Errorf("foreign notification status = %d, want 403", rec.Code)
	}
	if rec := doRequest(e, http.MethodGet, "/api/v1/notifications/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing notification status = %d, want 404", rec.Code)
	}
}

func TestHandler_SilenceUnsilence(t *testing.T) {
	repo := &memRepo{items: []Notification{
		{ID: "n1", RecipientEmail: "ana@example.com"},
	}}
	e := newTestServer(t, repo, "ana@example.com")

	if rec := doRequest(e, http.MethodPut, "/api/v1/notifications/n1/silence", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("silence status = %d", rec.Code)
	}
	if !repo.items[0].Silenced {
		t.Error("notification not silenced")
	}
	if rec := doRequest(e, http.MethodPut, "/api/v1/notifications/n1/unsilence", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unsilence status = %d", rec.Code)
	}
	if repo.items[0].Silenced {
		t.Error("notification still silenced")
	}
}

func TestHandler_ReminderRoutes(t *testing.T) {
	repo := &memRepo{items: []Notification{
		{ID: "n1", RecipientEmail: "ana@example.com"},
	}}
	e := newTestServer(t, repo, "ana@example.com")

	rec := doRequest(e, http.MethodPut, "/api/v1/notifications/n1/reminder",
		`{"dueAt":"2026-09-01T09:00:00"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("arm status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !repo.items[0].HasReminder || !repo.items[0].ReminderActive {
		t.Error("reminder not armed")
	}

	rec = doRequest(e, http.MethodPut, "/api/v1/notifications/n1/reminder", `{"dueAt":"not a time"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad due time status = %d, want 400", rec.Code)
	}

	rec = doRequest(e, http.MethodPut, "/api/v1/notifications/n1/reminder", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing dueAt status = %d, want 400", rec.Code)
	}

	rec = doRequest(e, http.MethodDelete, "/api/v1/notifications/n1/reminder", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", rec.Code)
	}
	if repo.items[0].HasReminder || repo.items[0].ReminderActive {
		t.Error("reminder not deactivated")
	}
}
