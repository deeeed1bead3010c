package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/account"
	"github.com/tle-lab/reservations/internal/export"
	"github.com/tle-lab/reservations/internal/middleware"
	"github.com/tle-lab/reservations/internal/reservation"
)

// AdminHandler serves the /v1/admin endpoints.  Routes are guarded by
// RequireRole; the services check the role again.
type AdminHandler struct {
	Reservations *reservation.Service
	Accounts     *account.Service
	Now          func() time.Time
}

// NewAdminHandler wires an AdminHandler.
func NewAdminHandler(res *reservation.Service, acc *account.Service) *AdminHandler {
	return &AdminHandler{Reservations: res, Accounts: acc, Now: time.Now}
}

type decisionReq struct {
	Decision string `json:"decision"`
}

// List returns every reservation plus the conflict notices waiting for
// this admin.  The notices are cleared by reading them.
func (h *AdminHandler) List(c echo.Context) error {
	p := middleware.Principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Reservations.ListAll(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	notices, err := h.Reservations.PendingNotices(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rs, "notices": notices})
}

// Decide approves or declines a reservation.  Approvals that overlap
// other approved bookings still succeed and list the overlaps.
func (h *AdminHandler) Decide(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Reservations.Decide(ctx, middleware.Principal(c), id, req.Decision)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Delete removes a reservation and its items.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reservations.Delete(ctx, middleware.Principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export downloads every reservation as an XLSX workbook.
func (h *AdminHandler) Export(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Reservations.ListAll(ctx, middleware.Principal(c))
	if err != nil {
		return fail(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteReservations(&buf, rs); err != nil {
		return fail(c, err)
	}
	name := export.Filename(h.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Users lists accounts without password hashes.
func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Accounts.ListUsers(ctx, middleware.Principal(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]userPart, 0, len(users))
	for i := range users {
		out = append(out, toUserPart(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// ResetPassword sets another user's password.
func (h *AdminHandler) ResetPassword(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.ResetPassword(ctx, middleware.Principal(c), id, req.Password); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
