package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
)

// view implements Repository directly on a document.  The Store hands out
// views over the live document for reads and over a private clone inside
// transactions; a view never locks.
type view struct {
	doc *document
}

var _ repository.Repository = (*view)(nil)

// WithTransaction on a view is already inside a transaction, so fn simply
// joins it.
func (v *view) WithTransaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	return fn(v)
}

func (v *view) CreateUser(_ context.Context, username, passwordHash string, role model.Role) (uint64, error) {
	username = strings.TrimSpace(username)
	for _, u := range v.doc.Users {
		if u.Username == username {
			return 0, repository.ErrDuplicateUsername
		}
	}
	var next uint64 = 1
	for _, u := range v.doc.Users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	v.doc.Users = append(v.doc.Users, model.User{ID: next, Username: username, PasswordHash: passwordHash, Role: role})
	return next, nil
}

func (v *view) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	for _, u := range v.doc.Users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *view) FindUserByID(_ context.Context, id uint64) (*model.User, error) {
	for _, u := range v.doc.Users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *view) ListUsers(context.Context) ([]model.User, error) {
	users := append([]model.User{}, v.doc.Users...)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (v *view) UpdateUserPassword(_ context.Context, id uint64, passwordHash string) error {
	for i := range v.doc.Users {
		if v.doc.Users[i].ID == id {
			v.doc.Users[i].PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (v *view) reservationIndex(id uint64) int {
	for i := range v.doc.Reservations {
		if v.doc.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *view) CreateReservation(_ context.Context, r *model.Reservation) (uint64, error) {
	row := *r
	row.Items = nil
	row.OwnerID = nil
	if row.ID != 0 {
		if v.reservationIndex(row.ID) >= 0 {
			return 0, repository.Wrap("create reservation", fmt.Errorf("id %d already used", row.ID))
		}
	} else {
		row.ID = 1
		for _, x := range v.doc.Reservations {
			if x.ID >= row.ID {
				row.ID = x.ID + 1
			}
		}
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.Status == "" {
		row.Status = model.StatusPending
	}
	v.doc.Reservations = append(v.doc.Reservations, row)
	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	return row.ID, nil
}

func (v *view) CreateReservationItems(_ context.Context, reservationID uint64, items []model.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	if v.reservationIndex(reservationID) < 0 {
		return repository.Wrap("create items", fmt.Errorf("reservation %d does not exist", reservationID))
	}
	var next uint64 = 1
	for _, it := range v.doc.Items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	for _, it := range items {
		v.doc.Items = append(v.doc.Items, model.ReservationItem{
			ID:            next,
			ReservationID: reservationID,
			Name:          it.Name,
			Quantity:      it.Quantity,
		})
		next++
	}
	return nil
}

func (v *view) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	i := v.reservationIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	r := v.doc.Reservations[i]
	r.Items = []model.ReservationItem{}
	for _, it := range v.doc.Items {
		if it.ReservationID == id {
			r.Items = append(r.Items, it)
		}
	}
	sort.Slice(r.Items, func(a, b int) bool { return r.Items[a].ID < r.Items[b].ID })
	return &r, nil
}

func (v *view) filter(keep func(model.Reservation) bool) []model.Reservation {
	out := []model.Reservation{}
	for _, r := range v.doc.Reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func newestFirst(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}

func calendarOrder(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.TimeFrom != b.TimeFrom {
			return a.TimeFrom < b.TimeFrom
		}
		return a.ID < b.ID
	})
}

func (v *view) ListReservations(_ context.Context, f repository.ListFilter) ([]model.Reservation, error) {
	out := v.filter(func(r model.Reservation) bool { return f.Status == "" || r.Status == f.Status })
	if f.NewestFirst {
		newestFirst(out)
	} else {
		calendarOrder(out)
	}
	return out, nil
}

func (v *view) ListReservationsByOwner(_ context.Context, ownerID uint64) ([]model.Reservation, error) {
	out := v.filter(func(r model.Reservation) bool { return r.OwnedBy(ownerID) })
	newestFirst(out)
	return out, nil
}

func (v *view) ListUnownedReservations(context.Context) ([]model.Reservation, error) {
	out := v.filter(func(r model.Reservation) bool { return r.CreatedBy == nil })
	newestFirst(out)
	return out, nil
}

func (v *view) ListApprovedAt(_ context.Context, venue, date string, excludeID uint64) ([]model.Reservation, error) {
	out := v.filter(func(r model.Reservation) bool {
		return r.ID != excludeID && r.Status == model.StatusApproved && r.Venue == venue && r.Date == date
	})
	calendarOrder(out)
	return out, nil
}

func (v *view) UpdateReservationStatus(_ context.Context, id uint64, from, to model.Status) error {
	i := v.reservationIndex(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	if v.doc.Reservations[i].Status != from {
		return repository.ErrStaleStatus
	}
	v.doc.Reservations[i].Status = to
	return nil
}

func (v *view) SetReservationOwner(_ context.Context, id, ownerID uint64) error {
	i := v.reservationIndex(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	owner := ownerID
	v.doc.Reservations[i].CreatedBy = &owner
	return nil
}

func (v *view) DeleteReservation(_ context.Context, id uint64) error {
	i := v.reservationIndex(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	v.doc.Reservations = append(v.doc.Reservations[:i:i], v.doc.Reservations[i+1:]...)
	items := v.doc.Items[:0:0]
	for _, it := range v.doc.Items {
		if it.ReservationID != id {
			items = append(items, it)
		}
	}
	v.doc.Items = items
	return nil
}
