package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/account"
	"github.com/tle-lab/reservations/internal/middleware"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/session"
	"github.com/tle-lab/reservations/internal/utils"
)

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Secret   string
	TTLMin   int
	Accounts *account.Service
	Denylist session.Denylist
}

// NewAuthHandler wires an AuthHandler.  denylist may be nil.
func NewAuthHandler(secret string, ttlMin int, accounts *account.Service, denylist session.Denylist) *AuthHandler {
	return &AuthHandler{Secret: secret, TTLMin: ttlMin, Accounts: accounts, Denylist: denylist}
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordReq struct {
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID       uint64     `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *AuthHandler) issue(c echo.Context, status int, u *model.User) error {
	tok, err := utils.NewAccessToken(h.Secret, u.ID, u.Username, string(u.Role), h.TTLMin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status, authResp{User: toUserPart(u), Access: tokenPart{Token: tok.Token, Expires: tok.Exp}})
}

// Signup creates an ordinary account and signs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.Signup(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return h.issue(c, http.StatusCreated, u)
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return h.issue(c, http.StatusOK, u)
}

// Logout revokes the token used for this request until it expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	id, exp, ok := middleware.TokenID(c)
	if ok && h.Denylist != nil {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.Denylist.Revoke(ctx, id, exp); err != nil {
			log.Printf("auth: revoke %s: %v", id, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.Me(ctx, middleware.Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ChangePassword lets users reset their own password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p := middleware.Principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.ResetPassword(ctx, p, p.UserID, req.Password); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
