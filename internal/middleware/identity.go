package middleware

// identity.go holds the helpers that move the authenticated principal
// between the JWT middleware, the role check and the handlers.

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/authz"
)

const (
	tokenIDKey  = "token_id"
	tokenExpKey = "token_exp"
)

// Principal returns the principal stored by JWTAuth, or the anonymous
// principal on public routes.
func Principal(c echo.Context) authz.Principal {
	return authz.FromContext(c.Request().Context())
}

// TokenID returns the id and expiry of the access token used for the
// request.  ok is false on public routes.
func TokenID(c echo.Context) (id string, exp time.Time, ok bool) {
	id, _ = c.Get(tokenIDKey).(string)
	exp, _ = c.Get(tokenExpKey).(time.Time)
	return id, exp, id != ""
}

func setPrincipal(c echo.Context, p authz.Principal) {
	req := c.Request()
	c.SetRequest(req.WithContext(authz.WithPrincipal(req.Context(), p)))
}

// userKey identifies the caller for rate limiting: the user id when
// signed in, otherwise "anon".
func userKey(c echo.Context) string {
	p := Principal(c)
	if !p.Authenticated() {
		return "anon"
	}
	return strconv.FormatUint(p.UserID, 10)
}
