// Package router registers the HTTP routes of the API.
package router

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tle-lab/reservations/internal/config"
	"github.com/tle-lab/reservations/internal/handler"
	"github.com/tle-lab/reservations/internal/middleware"
	"github.com/tle-lab/reservations/internal/session"
)

// Deps groups what the routes need.  Redis and Ping may be nil.
type Deps struct {
	JWTSecret    string
	Denylist     session.Denylist
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
	Ping         func(ctx context.Context) error
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Admin        *handler.AdminHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	RegisterPublic(e, d)
	RegisterAuth(e, d)
	RegisterReservations(e, d)
	RegisterAdmin(e, d)
}

// RegisterPublic mounts the routes that need no session: the health check
// and the (cached) calendar of approved reservations.
func RegisterPublic(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.Ping))
	e.GET("/v1/calendar", d.Reservations.Calendar, middleware.ResponseCache(d.Cache, d.Redis))
}

// RegisterAuth mounts signup and login (rate limited) under /v1/auth and
// the account endpoints that require a token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/v1/auth")
	limit := middleware.RateLimit(d.RateLimit, d.Redis)
	g.POST("/signup", d.Auth.Signup, limit)
	g.POST("/login", d.Auth.Login, limit)

	auth := e.Group("/v1", middleware.JWTAuth(d.JWTSecret, d.Denylist))
	auth.POST("/auth/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me)
	auth.POST("/me/password", d.Auth.ChangePassword)
}

// RegisterReservations mounts the signed-in user's reservation endpoints.
func RegisterReservations(e *echo.Echo, d Deps) {
	g := e.Group("/v1", middleware.JWTAuth(d.JWTSecret, d.Denylist))
	g.POST("/reservations", d.Reservations.Create)
	g.POST("/reservations/equipment", d.Reservations.CreateEquipment)
	g.GET("/reservations", d.Reservations.List)
	g.GET("/reservations/:id", d.Reservations.Get)
	g.POST("/reservations/:id/cancel", d.Reservations.Cancel, middleware.InvalidateCache(d.Cache, d.Redis))
	g.GET("/statistics", d.Reservations.Stats)
}
