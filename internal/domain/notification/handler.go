package notification

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

// Handler exposes the notification API over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a notification HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the notification routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/notifications", h.list)
	g.GET("/notifications/count", h.count)
	g.GET("/notifications/:id", h.get)
	g.PUT("/notifications/:id/silence", h.silence)
	g.PUT("/notifications/:id/unsilence", h.unsilence)
	g.PUT("/notifications/:id/reminder", h.setReminder)
	g.DELETE("/notifications/:id/reminder", h.deleteReminder)
}

func (h *Handler) list(c echo.Context) error {
	email := auth.CurrentUserEmail(c)
	items, err := h.svc.ListForRecipient(email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notifications")
	}
	p := pagination.FromContext(c)
	start, end := p.Slice(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], len(items), p.Limit, p.Offset))
}

func (h *Handler) count(c echo.Context) error {
	email := auth.CurrentUserEmail(c)
	n, err := h.svc.CountUnsilenced(email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count notifications")
	}
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) get(c echo.Context) error {
	n, err := h.svc.Get(c.Param("id"), auth.CurrentUserEmail(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) silence(c echo.Context) error {
	if err := h.svc.SetSilenced(c.Param("id"), auth.CurrentUserEmail(c), true); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) unsilence(c echo.Context) error {
	if err := h.svc.SetSilenced(c.Param("id"), auth.CurrentUserEmail(c), false); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type reminderRequest struct {
	DueAt string `json:"dueAt"`
}

func (h *Handler) setReminder(c echo.Context) error {
	var req reminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DueAt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "dueAt is required")
	}
	if err := h.svc.ArmReminder(c.Param("id"), auth.CurrentUserEmail(c), req.DueAt); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) deleteReminder(c echo.Context) error {
	if err := h.svc.DeactivateReminder(c.Param("id"), auth.CurrentUserEmail(c)); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not the recipient of this notification")
	case errors.Is(err, ErrInvalidDueTime):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reminder due time")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "notification operation failed")
	}
}
