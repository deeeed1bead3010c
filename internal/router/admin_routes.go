package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/middleware"
	"github.com/tle-lab/reservations/internal/model"
)

// RegisterAdmin mounts the /v1/admin routes.  All of them require a token
// carrying the admin role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret, d.Denylist),
		middleware.RequireRole(model.RoleAdmin),
	)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis)
	g.GET("/reservations", d.Admin.List)
	// registered before :id so the literal segment wins
	g.GET("/reservations/export", d.Admin.Export)
	g.POST("/reservations/:id/decision", d.Admin.Decide, invalidate)
	g.DELETE("/reservations/:id", d.Admin.Delete, invalidate)
	g.GET("/users", d.Admin.Users)
	g.POST("/users/:id/password", d.Admin.ResetPassword)
}
