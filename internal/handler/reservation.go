package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/middleware"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/reservation"
)

// ReservationHandler serves the signed-in user's reservation endpoints
// and the public calendar.
type ReservationHandler struct {
	Svc *reservation.Service
	Now func() time.Time
}

// NewReservationHandler wires a ReservationHandler.
func NewReservationHandler(svc *reservation.Service) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Now: time.Now}
}

// Create books a lab venue.
func (h *ReservationHandler) Create(c echo.Context) error {
	return h.create(c, h.Svc.Create)
}

// CreateEquipment books equipment only.
func (h *ReservationHandler) CreateEquipment(c echo.Context) error {
	return h.create(c, h.Svc.CreateEquipment)
}

func (h *ReservationHandler) create(c echo.Context, op func(context.Context, authz.Principal, reservation.CreateInput) (*model.Reservation, error)) error {
	var in reservation.CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := op(ctx, middleware.Principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List returns the caller's reservations, optionally ?kind=lab|equipment.
func (h *ReservationHandler) List(c echo.Context) error {
	kind, err := reservation.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Svc.ListMine(ctx, middleware.Principal(c), kind)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rs})
}

// Get returns one reservation with its items.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel withdraws a pending or approved reservation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Cancel(ctx, middleware.Principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Stats summarizes the caller's reservations.
func (h *ReservationHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Svc.Stats(ctx, middleware.Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Calendar lists approved reservations.  Public.
func (h *ReservationHandler) Calendar(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cal, err := h.Svc.Calendar(ctx, h.Now().UTC())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cal)
}
