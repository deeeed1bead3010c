package middleware // reusable HTTP middleware for the reservation API

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/session"
	"github.com/tle-lab/reservations/internal/utils"
)

// JWTAuth validates the Bearer access token, rejects tokens revoked by
// logout and stores the resulting principal in the request context.
// denylist may be nil, in which case revocation is not checked.
func JWTAuth(secret string, denylist session.Denylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			if denylist != nil {
				revoked, err := denylist.Revoked(c.Request().Context(), claims.ID)
				if err != nil {
					// fail open
					log.Printf("auth: denylist lookup failed: %v", err)
				} else if revoked {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
				}
			}

			uid, _ := claims.UserID()
			setPrincipal(c, authz.Principal{
				UserID:   uid,
				Username: claims.Username,
				Role:     model.ParseRole(claims.Role),
			})
			c.Set(tokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(tokenExpKey, claims.ExpiresAt.Time)
			}
			return next(c)
		}
	}
}
