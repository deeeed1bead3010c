package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tle-lab/reservations/internal/account"
	"github.com/tle-lab/reservations/internal/conflict"
	"github.com/tle-lab/reservations/internal/handler"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository/docstore"
	"github.com/tle-lab/reservations/internal/reservation"
	"github.com/tle-lab/reservations/internal/session"
	"github.com/tle-lab/reservations/internal/utils"
)

const secret = "router-test"

type api struct {
	t     *testing.T
	e     *echo.Echo
	store *docstore.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := docstore.NewMemory()
	accounts := account.NewService(store, 4)
	res := reservation.NewService(reservation.Deps{Repo: store, Policy: conflict.Conservative})
	deny := session.NewMemoryDenylist()
	e := echo.New()
	Register(e, Deps{
		JWTSecret:    secret,
		Denylist:     deny,
		Auth:         handler.NewAuthHandler(secret, 15, accounts, deny),
		Reservations: handler.NewReservationHandler(res),
		Admin:        handler.NewAdminHandler(res, accounts),
	})
	return &api{t: t, e: e, store: store}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) signup(name string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/auth/signup", "", map[string]string{"username": name, "password": "secret"})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("signup %s: %d %s", name, rec.Code, rec.Body)
	}
	var out struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out.Access.Token
}

func (a *api) admin() string {
	a.t.Helper()
	hash, _ := utils.HashPassword("secret", 4)
	id, err := a.store.CreateUser(context.Background(), "root", hash, model.RoleAdmin)
	if err != nil {
		a.t.Fatal(err)
	}
	tok, _ := utils.NewAccessToken(secret, id, "root", string(model.RoleAdmin), 15)
	return tok.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body, err)
	}
	return v
}

func TestHealthAndCalendarArePublic(t *testing.T) {
	a := newAPI(t)
	if rec := a.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec := a.do(http.MethodGet, "/v1/calendar", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar = %d", rec.Code)
	}
	cal := decode[reservation.Calendar](t, rec)
	if len(cal.Events) != 0 {
		t.Fatalf("calendar = %+v", cal)
	}
}

func TestSignupLoginLogout(t *testing.T) {
	a := newAPI(t)
	a.signup("alice")

	if rec := a.do(http.MethodPost, "/v1/auth/signup", "", map[string]string{"username": "alice", "password": "other"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", rec.Code)
	}
	rec := a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body)
	}
	token := decode[struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}](t, rec).Access.Token

	if rec := a.do(http.MethodGet, "/v1/me", token, nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"alice"`) {
		t.Fatalf("me = %d %s", rec.Code, rec.Body)
	}
	if rec := a.do(http.MethodPost, "/v1/auth/logout", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/v1/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", rec.Code)
	}
}

func TestReservationFlow(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice")
	bob := a.signup("bob")
	root := a.admin()

	if rec := a.do(http.MethodPost, "/v1/reservations", "", map[string]string{"venue": "Lab A", "date": "2030-01-02"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/reservations", alice, map[string]string{"date": "2030-01-02"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("create without venue = %d", rec.Code)
	}

	first := decode[model.Reservation](t, a.do(http.MethodPost, "/v1/reservations", alice,
		map[string]string{"venue": "Lab A", "date": "2030-01-02", "time_from": "09:00", "time_to": "11:00"}))
	second := decode[model.Reservation](t, a.do(http.MethodPost, "/v1/reservations", bob,
		map[string]string{"venue": "Lab A", "date": "2030-01-02", "time_from": "10:00", "time_to": "12:00"}))
	eqRec := a.do(http.MethodPost, "/v1/reservations/equipment", bob,
		map[string]any{"date": "2030-01-03", "equipment_name": []string{"Projector"}, "equipment_qty": []string{"2"}})
	if eqRec.Code != http.StatusCreated || !strings.Contains(eqRec.Body.String(), "Projector (x2)") {
		t.Fatalf("equipment create = %d %s", eqRec.Code, eqRec.Body)
	}

	if rec := a.do(http.MethodGet, "/v1/reservations/"+itoa(first.ID), bob, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign get = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/reservations/"+itoa(first.ID)+"/cancel", bob, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel = %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/v1/reservations/999", alice, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing get = %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/v1/reservations/abc", alice, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id get = %d", rec.Code)
	}

	list := decode[struct {
		Reservations []model.Reservation `json:"reservations"`
	}](t, a.do(http.MethodGet, "/v1/reservations?kind=lab", bob, nil))
	if len(list.Reservations) != 1 || list.Reservations[0].ID != second.ID {
		t.Fatalf("bob's lab list = %+v", list.Reservations)
	}

	if rec := a.do(http.MethodPost, "/v1/admin/reservations/"+itoa(first.ID)+"/decision", alice, map[string]string{"decision": "approved"}); rec.Code != http.StatusForbidden {
		t.Fatalf("user decision = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/admin/reservations/"+itoa(first.ID)+"/decision", root, map[string]string{"decision": "approved"}); rec.Code != http.StatusOK {
		t.Fatalf("approve first = %d %s", rec.Code, rec.Body)
	}
	d := decode[reservation.Decision](t, a.do(http.MethodPost, "/v1/admin/reservations/"+itoa(second.ID)+"/decision", root, map[string]string{"decision": "approved"}))
	if len(d.Conflicts) != 1 || d.Conflicts[0].ReservationID != first.ID {
		t.Fatalf("decision = %+v", d)
	}

	adminList := decode[struct {
		Reservations []model.Reservation `json:"reservations"`
		Notices      []string            `json:"notices"`
	}](t, a.do(http.MethodGet, "/v1/admin/reservations", root, nil))
	if len(adminList.Reservations) != 3 || len(adminList.Notices) != 1 {
		t.Fatalf("admin list = %+v", adminList)
	}

	if rec := a.do(http.MethodPost, "/v1/admin/reservations/"+itoa(first.ID)+"/decision", root, map[string]string{"decision": "declined"}); rec.Code != http.StatusConflict {
		t.Fatalf("approved -> declined = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/reservations/"+itoa(first.ID)+"/cancel", alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner cancel = %d", rec.Code)
	}

	exp := a.do(http.MethodGet, "/v1/admin/reservations/export", root, nil)
	if exp.Code != http.StatusOK || !strings.Contains(exp.Header().Get(echo.HeaderContentDisposition), ".xlsx") {
		t.Fatalf("export = %d %v", exp.Code, exp.Header())
	}

	if rec := a.do(http.MethodDelete, "/v1/admin/reservations/"+itoa(second.ID), root, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := a.do(http.MethodDelete, "/v1/admin/reservations/"+itoa(second.ID), root, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", rec.Code)
	}
}

func TestAdminUsersAndPasswordReset(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice")
	root := a.admin()

	if rec := a.do(http.MethodGet, "/v1/admin/users", alice, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user list by user = %d", rec.Code)
	}
	rec := a.do(http.MethodGet, "/v1/admin/users", root, nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("users = %d %s", rec.Code, rec.Body)
	}
	if rec := a.do(http.MethodPost, "/v1/admin/users/1/password", root, map[string]string{"password": "abc"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("short reset = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/admin/users/1/password", root, map[string]string{"password": "fresh"}); rec.Code != http.StatusNoContent {
		t.Fatalf("reset = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice", "password": "fresh"}); rec.Code != http.StatusOK {
		t.Fatalf("login with reset password = %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/v1/me/password", alice, map[string]string{"password": "mine!"}); rec.Code != http.StatusNoContent {
		t.Fatalf("self reset = %d", rec.Code)
	}
}

func TestStatistics(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice")
	a.do(http.MethodPost, "/v1/reservations", alice, map[string]string{"venue": "Lab A", "date": "2030-01-02"})
	st := decode[reservation.Stats](t, a.do(http.MethodGet, "/v1/statistics", alice, nil))
	if st.Total != 1 || st.Lab != 1 || st.ByStatus[model.StatusPending] != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
