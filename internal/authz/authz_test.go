package authz

import (
	"context"
	"testing"

	"github.com/tle-lab/reservations/internal/model"
)

func ptr(v uint64) *uint64 { return &v }

var (
	admin = Principal{UserID: 1, Username: "root", Role: model.RoleAdmin}
	alice = Principal{UserID: 2, Username: "alice", Role: model.RoleUser}
	bob   = Principal{UserID: 3, Username: "bob", Role: model.RoleUser}
)

func TestCanAdminister(t *testing.T) {
	if !CanAdminister(admin) {
		t.Error("admin must administer")
	}
	if CanAdminister(alice) || CanAdminister(Anonymous) {
		t.Error("non-admins must not administer")
	}
	forged := Principal{Role: model.RoleAdmin}
	if CanAdminister(forged) {
		t.Error("anonymous principal with admin role must not administer")
	}
}

func TestCanMutate(t *testing.T) {
	owned := model.Reservation{ID: 10, CreatedBy: ptr(alice.UserID)}
	legacy := model.Reservation{ID: 11, PersonName: "alice"}

	tests := []struct {
		name string
		p    Principal
		r    model.Reservation
		want bool
	}{
		{"owner", alice, owned, true},
		{"admin", admin, owned, true},
		{"other user", bob, owned, false},
		{"anonymous", Anonymous, owned, false},
		{"legacy row, name match", alice, legacy, false},
		{"legacy row, admin", admin, legacy, true},
	}
	for _, tt := range tests {
		if got := CanMutate(tt.p, tt.r); got != tt.want {
			t.Errorf("%s: CanMutate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCanView(t *testing.T) {
	legacy := model.Reservation{ID: 11, PersonName: "Alice", OwnerID: ptr(alice.UserID)}
	if !CanView(alice, legacy) {
		t.Error("resolved owner must see legacy reservation")
	}
	if CanView(bob, legacy) || CanView(Anonymous, legacy) {
		t.Error("non-owner must not see reservation")
	}
	if !CanView(admin, legacy) {
		t.Error("admin must see everything")
	}
	if !CanCreate(bob) || CanCreate(Anonymous) {
		t.Error("CanCreate must require a signed-in user")
	}
}

func TestResolveOwner(t *testing.T) {
	users := []model.User{
		{ID: 7, Username: "Carol"},
		{ID: 4, Username: "carol"},
		{ID: 9, Username: "CAROL"},
		{ID: 5, Username: "dave"},
	}
	tests := []struct {
		name string
		r    model.Reservation
		want *uint64
	}{
		{"created_by wins", model.Reservation{CreatedBy: ptr(42), PersonName: "dave"}, ptr(42)},
		{"exact match", model.Reservation{PersonName: " CAROL "}, ptr(9)},
		{"case-insensitive lowest id", model.Reservation{PersonName: "cAROL"}, ptr(4)},
		{"unique match", model.Reservation{PersonName: "DAVE"}, ptr(5)},
		{"no match", model.Reservation{PersonName: "erin"}, nil},
		{"blank name", model.Reservation{PersonName: "  "}, nil},
	}
	for _, tt := range tests {
		got := ResolveOwner(tt.r, users)
		switch {
		case got == nil && tt.want == nil:
		case got == nil || tt.want == nil || *got != *tt.want:
			t.Errorf("%s: ResolveOwner = %v, want %v", tt.name, deref(got), deref(tt.want))
		}
	}
}

func deref(p *uint64) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestPrincipalContext(t *testing.T) {
	if got := FromContext(context.Background()); got != Anonymous {
		t.Fatalf("empty context = %+v", got)
	}
	ctx := WithPrincipal(context.Background(), alice)
	if got := FromContext(ctx); got != alice {
		t.Fatalf("FromContext = %+v, want %+v", got, alice)
	}
}
