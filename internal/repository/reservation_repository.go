package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tle-lab/reservations/internal/model"
)

// CreateReservation inserts r (without its items) and returns the new id.
// A non-zero r.ID is kept, which the legacy import relies on.
func (s *SQLStore) CreateReservation(ctx context.Context, r *model.Reservation) (uint64, error) {
	row := *r
	row.Items = nil
	row.OwnerID = nil
	if err := s.conn(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return 0, persistErr("create reservation", err)
	}
	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	return row.ID, nil
}

// CreateReservationItems inserts all items for a reservation in a single
// statement.  Passing an empty slice has no effect.
func (s *SQLStore) CreateReservationItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]model.ReservationItem, len(items))
	for i, it := range items {
		rows[i] = model.ReservationItem{ReservationID: reservationID, Name: it.Name, Quantity: it.Quantity}
	}
	return persistErr("create items", s.conn(ctx).Create(&rows).Error)
}

// GetReservation loads a reservation and its items.
func (s *SQLStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	var r model.Reservation
	err := s.conn(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&r, id).Error
	if err != nil {
		return nil, persistErr("get reservation", notFound(err))
	}
	return &r, nil
}

// ListReservations returns reservations matching f.  Without NewestFirst
// they come in calendar order (date, start time, id).
func (s *SQLStore) ListReservations(ctx context.Context, f ListFilter) ([]model.Reservation, error) {
	q := s.conn(ctx).Model(&model.Reservation{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.NewestFirst {
		q = q.Order("created_at DESC").Order("id DESC")
	} else {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}}).Order("time_from").Order("id")
	}
	return s.find(q, "list reservations")
}

// ListReservationsByOwner returns the reservations whose created_by is
// ownerID, newest first.
func (s *SQLStore) ListReservationsByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	q := s.conn(ctx).Where("created_by = ?", ownerID).Order("created_at DESC").Order("id DESC")
	return s.find(q, "list by owner")
}

// ListUnownedReservations returns legacy reservations without created_by.
func (s *SQLStore) ListUnownedReservations(ctx context.Context) ([]model.Reservation, error) {
	q := s.conn(ctx).Where("created_by IS NULL").Order("created_at DESC").Order("id DESC")
	return s.find(q, "list unowned")
}

// ListApprovedAt returns approved reservations for venue on date other
// than excludeID.  Time ranges are compared by the caller.
func (s *SQLStore) ListApprovedAt(ctx context.Context, venue, date string, excludeID uint64) ([]model.Reservation, error) {
	q := s.conn(ctx).
		Where(map[string]any{"venue": venue, "date": date, "status": string(model.StatusApproved)}).
		Where("id <> ?", excludeID).
		Order("time_from").Order("id")
	return s.find(q, "list approved")
}

func (s *SQLStore) find(q *gorm.DB, op string) ([]model.Reservation, error) {
	out := []model.Reservation{}
	if err := q.Find(&out).Error; err != nil {
		return nil, persistErr(op, err)
	}
	return out, nil
}

// UpdateReservationStatus moves a reservation from one status to another.
// The row is locked for the duration of the check so two admins deciding
// the same request cannot both succeed; the loser gets ErrStaleStatus.
func (s *SQLStore) UpdateReservationStatus(ctx context.Context, id uint64, from, to model.Status) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.Reservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").First(&cur, id).Error; err != nil {
			return notFound(err)
		}
		if cur.Status != from {
			return ErrStaleStatus
		}
		return tx.Model(&model.Reservation{}).Where("id = ?", id).Update("status", to).Error
	})
	return persistErr("update status", err)
}

// SetReservationOwner records ownerID as the reservation's created_by.
func (s *SQLStore) SetReservationOwner(ctx context.Context, id, ownerID uint64) error {
	res := s.conn(ctx).Model(&model.Reservation{}).Where("id = ?", id).Update("created_by", ownerID)
	if res.Error != nil {
		return persistErr("set owner", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReservation removes a reservation and its items in one
// transaction.  The foreign key cascades as well; deleting the items
// explicitly keeps databases created without the constraint consistent.
func (s *SQLStore) DeleteReservation(ctx context.Context, id uint64) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reservation_id = ?", id).Delete(&model.ReservationItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Reservation{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return persistErr("delete reservation", err)
}
