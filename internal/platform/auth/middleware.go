package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	emailContextKey = "auth.email"
	roleContextKey  = "auth.role"
)

// Middleware verifies the Authorization bearer token and stores the
// caller's identity on the request context.
func Middleware(issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			c.Set(emailContextKey, claims.Email)
			c.Set(roleContextKey, claims.Role)
			return next(c)
		}
	}
}

// DevMiddleware bypasses token verification and pins every request to
// a fixed identity. Only for local development.
func DevMiddleware(email, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(emailContextKey, email)
			c.Set(roleContextKey, role)
			return next(c)
		}
	}
}

// CurrentUserEmail returns the authenticated caller's email, or the
// empty string on an unauthenticated request.
func CurrentUserEmail(c echo.Context) string {
	email, _ := c.Get(emailContextKey).(string)
	return email
}

// CurrentUserRole returns the authenticated caller's role.
func CurrentUserRole(c echo.Context) string {
	role, _ := c.Get(roleContextKey).(string)
	return role
}
