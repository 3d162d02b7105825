package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	e := echo.New()
	handler := RequestID()(func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		return c.String(http.StatusOK, rid)
	})

	t.Run("generated when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatal(err)
		}
		if rec.Body.String() == "" {
			t.Error("no request id generated")
		}
		if rec.Header().Get(requestIDHeader) != rec.Body.String() {
			t.Error("response header does not match context id")
		}
	})

	t.Run("caller id preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "caller-id")
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatal(err)
		}
		if rec.Body.String() != "caller-id" {
			t.Errorf("request id = %q, want caller-id", rec.Body.String())
		}
	})
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	handler := Recovery(zerolog.Nop())(func(c echo.Context) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	err := handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %v", err)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	e := echo.New()
	handler := Logger(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
