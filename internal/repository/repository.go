package repository

import (
	"context"

	"github.com/tle-lab/reservations/internal/model"
)

// ListFilter narrows ListReservations.  Zero values mean "any".
type ListFilter struct {
	Status      model.Status
	NewestFirst bool
}

// Repository is the persistence contract consumed by the services.  Both
// the SQL store and the JSON document store implement it.
//
// Reservations returned by GetReservation carry their items; list methods
// return reservations without items.  All ids are assigned by the store.
type Repository interface {
	CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (uint64, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id uint64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserPassword(ctx context.Context, id uint64, passwordHash string) error

	CreateReservation(ctx context.Context, r *model.Reservation) (uint64, error)
	CreateReservationItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListReservations(ctx context.Context, f ListFilter) ([]model.Reservation, error)
	ListReservationsByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error)
	ListUnownedReservations(ctx context.Context) ([]model.Reservation, error)
	ListApprovedAt(ctx context.Context, venue, date string, excludeID uint64) ([]model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uint64, from, to model.Status) error
	SetReservationOwner(ctx context.Context, id, ownerID uint64) error
	DeleteReservation(ctx context.Context, id uint64) error

	// WithTransaction runs fn against a transactional view of the store.
	// The work is committed when fn returns nil and discarded otherwise,
	// including when fn panics.
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error
}
