package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Handler exposes registration, login, and profile management over
// HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates an identity HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublic mounts the unauthenticated auth routes.
func (h *Handler) RegisterPublic(g *echo.Group) {
	g.POST("/auth/register", h.register)
	g.POST("/auth/login", h.login)
}

// RegisterProtected mounts the routes that require a bearer token.
func (h *Handler) RegisterProtected(g *echo.Group) {
	g.GET("/profile", h.getProfile)
	g.PUT("/profile", h.updateProfile)
	g.DELETE("/profile", h.deleteProfile)
	g.GET("/specialists", h.listSpecialists)
}

func (h *Handler) register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	profile, err := h.svc.Register(in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, profile)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	token, profile, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: profile})
}

func (h *Handler) getProfile(c echo.Context) error {
	profile, err := h.svc.GetProfile(auth.CurrentUserEmail(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) updateProfile(c echo.Context) error {
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	profile, err := h.svc.UpdateProfile(auth.CurrentUserEmail(c), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) deleteProfile(c echo.Context) error {
	if err := h.svc.DeleteProfile(auth.CurrentUserEmail(c)); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listSpecialists(c echo.Context) error {
	specialists, err := h.svc.ListSpecialists()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list specialists")
	}
	return c.JSON(http.StatusOK, specialists)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrCedulaTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "identity operation failed")
	}
}
