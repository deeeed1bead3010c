// Package authz holds the authorization rules applied before any
// reservation or account is read or changed.  The functions are pure: they
// look only at the principal and the reservation passed in.
package authz

import (
	"context"
	"strings"

	"github.com/tle-lab/reservations/internal/model"
)

// Principal is the actor behind a request.  The zero value is the
// anonymous visitor.
type Principal struct {
	UserID   uint64
	Username string
	Role     model.Role
}

// Anonymous is the principal used for unauthenticated requests.
var Anonymous = Principal{}

// Authenticated reports whether the principal belongs to a signed-in user.
func (p Principal) Authenticated() bool { return p.UserID != 0 }

// CanAdminister is true only for admins.
func CanAdminister(p Principal) bool {
	return p.Authenticated() && p.Role == model.RoleAdmin
}

// CanCreate is true for any signed-in user.
func CanCreate(p Principal) bool { return p.Authenticated() }

// CanMutate decides whether p may cancel r: admins always may, other users
// only when r.CreatedBy names them.  Legacy rows without an owner id can
// only be changed by an admin.
func CanMutate(p Principal, r model.Reservation) bool {
	if CanAdminister(p) {
		return true
	}
	return p.Authenticated() && r.OwnedBy(p.UserID)
}

// CanView decides whether p may see the full details of r.  Owners are
// matched on the resolved owner so legacy rows stay visible to the person
// who booked them.
func CanView(p Principal, r model.Reservation) bool {
	if CanAdminister(p) {
		return true
	}
	if !p.Authenticated() {
		return false
	}
	owner := r.OwnerID
	if owner == nil {
		owner = r.CreatedBy
	}
	return owner != nil && *owner == p.UserID
}

// ResolveOwner returns the id of the user who owns r.  CreatedBy wins when
// present.  Otherwise PersonName (trimmed) is matched against usernames:
// an exact match first, then a case-insensitive match with the lowest id.
// It returns nil when nobody matches.
func ResolveOwner(r model.Reservation, users []model.User) *uint64 {
	if r.CreatedBy != nil {
		id := *r.CreatedBy
		return &id
	}
	name := strings.TrimSpace(r.PersonName)
	if name == "" {
		return nil
	}
	var folded *uint64
	for _, u := range users {
		uname := strings.TrimSpace(u.Username)
		if uname == name {
			id := u.ID
			return &id
		}
		if strings.EqualFold(uname, name) && (folded == nil || u.ID < *folded) {
			id := u.ID
			folded = &id
		}
	}
	return folded
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
