package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/model"
)

// RequireRole rejects requests whose principal holds none of roles with
// 403.  It must run after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal(c)
			if !p.Authenticated() || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
