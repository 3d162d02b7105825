package scheduling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Handler exposes the appointment API over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a scheduling HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the appointment routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/appointments", h.book)
	g.GET("/appointments", h.list)
	g.GET("/appointments/:id", h.get)
	g.PUT("/appointments/:id", h.reschedule)
	g.DELETE("/appointments/:id", h.cancel)
}

func (h *Handler) book(c echo.Context) error {
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Book(auth.CurrentUserEmail(c), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// list returns the caller's own bookings, or a specialist's agenda when
// the caller asks with ?specialist=<name>.
func (h *Handler) list(c echo.Context) error {
	var (
		items []Appointment
		err   error
	)
	if name := c.QueryParam("specialist"); name != "" {
		items, err = h.svc.ListForSpecialist(name)
	} else {
		items, err = h.svc.ListForPatient(auth.CurrentUserEmail(c))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c echo.Context) error {
	a, err := h.svc.Get(c.Param("id"), auth.CurrentUserEmail(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) reschedule(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Reschedule(c.Param("id"), auth.CurrentUserEmail(c), req.Date, req.Time)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) cancel(c echo.Context) error {
	if err := h.svc.Cancel(c.Param("id"), auth.CurrentUserEmail(c)); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, "slot already booked")
	case errors.Is(err, ErrCancelled):
		return echo.NewHTTPError(http.StatusConflict, "appointment is cancelled")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not your appointment")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "appointment operation failed")
	}
}
