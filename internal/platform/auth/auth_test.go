package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("ana@example.com", "patient")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("email = %q, want ana@example.com", claims.Email)
	}
	if claims.Role != "patient" {
		t.Errorf("role = %q, want patient", claims.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-a", time.Hour).Issue("ana@example.com", "patient")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := NewIssuer("test-secret", -time.Minute).Issue("ana@example.com", "patient")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("test-secret", -time.Minute).Verify(token); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	e := echo.New()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUserEmail(c))
	}
	wrapped := Middleware(issuer)(handler)

	t.Run("valid token", func(t *testing.T) {
		token, err := issuer.Issue("ana@example.com", "patient")
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		if err := wrapped(e.NewContext(req, rec)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Body.String() != "ana@example.com" {
			t.Errorf("body = %q, want caller email", rec.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		err := wrapped(e.NewContext(req, rec))
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()

		err := wrapped(e.NewContext(req, rec))
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestDevMiddleware(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUserEmail(c)+"/"+CurrentUserRole(c))
	}
	wrapped := DevMiddleware("dev@example.com", "specialist")(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := wrapped(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "dev@example.com/specialist" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
