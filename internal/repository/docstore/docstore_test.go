package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
)

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	uid, err := s.CreateUser(ctx, " alice ", "hash", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	r := &model.Reservation{Venue: "Lab A", Date: "2024-03-01", TimeFrom: "09:00", TimeTo: "10:00", CreatedBy: &uid}
	rid, err := s.CreateReservation(ctx, r)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if err := s.CreateReservationItems(ctx, rid, []model.ReservationItem{{Name: "Projector", Quantity: 2}}); err != nil {
		t.Fatalf("CreateReservationItems: %v", err)
	}

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	u, err := again.FindUserByUsername(ctx, "alice")
	if err != nil || u.ID != uid || u.Role != model.RoleAdmin {
		t.Fatalf("FindUserByUsername = %+v, %v", u, err)
	}
	got, err := again.GetReservation(ctx, rid)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.Status != model.StatusPending || len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("reloaded reservation = %+v", got)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(tx repository.Repository) error {
		id, err := tx.CreateReservation(ctx, &model.Reservation{Venue: "Lab A", Date: "2024-03-01"})
		if err != nil {
			return err
		}
		if err := tx.CreateReservationItems(ctx, id, []model.ReservationItem{{Name: "Cable", Quantity: 1}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction err = %v, want boom", err)
	}
	all, _ := s.ListReservations(ctx, repository.ListFilter{})
	if len(all) != 0 {
		t.Fatalf("rolled back transaction left %d reservations", len(all))
	}
	if len(s.doc.Items) != 0 {
		t.Fatalf("rolled back transaction left %d items", len(s.doc.Items))
	}
}

func TestDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := s.CreateUser(ctx, "bob", "first", model.RoleUser); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "bob", "second", model.RoleUser); !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Fatalf("second CreateUser err = %v", err)
	}
	u, _ := s.FindUserByUsername(ctx, "bob")
	if u.PasswordHash != "first" {
		t.Fatalf("password hash = %q, want first", u.PasswordHash)
	}
}

func TestDeleteCascadesItems(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	keep, _ := s.CreateReservation(ctx, &model.Reservation{Venue: "Lab A", Date: "2024-03-01"})
	drop, _ := s.CreateReservation(ctx, &model.Reservation{Venue: "Lab B", Date: "2024-03-01"})
	_ = s.CreateReservationItems(ctx, keep, []model.ReservationItem{{Name: "Cable", Quantity: 1}})
	_ = s.CreateReservationItems(ctx, drop, []model.ReservationItem{{Name: "Projector", Quantity: 1}, {Name: "Mic", Quantity: 3}})

	if err := s.DeleteReservation(ctx, drop); err != nil {
		t.Fatalf("DeleteReservation: %v", err)
	}
	if _, err := s.GetReservation(ctx, drop); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted reservation still readable: %v", err)
	}
	if len(s.doc.Items) != 1 || s.doc.Items[0].ReservationID != keep {
		t.Fatalf("items after delete = %+v", s.doc.Items)
	}
	if err := s.DeleteReservation(ctx, drop); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	id, _ := s.CreateReservation(ctx, &model.Reservation{Venue: "Lab A", Date: "2024-03-01"})

	if err := s.UpdateReservationStatus(ctx, id, model.StatusPending, model.StatusApproved); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := s.UpdateReservationStatus(ctx, id, model.StatusPending, model.StatusDeclined); !errors.Is(err, repository.ErrStaleStatus) {
		t.Fatalf("stale update err = %v", err)
	}
	got, _ := s.GetReservation(ctx, id)
	if got.Status != model.StatusApproved {
		t.Fatalf("status = %s, want approved", got.Status)
	}
}

func TestListApprovedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	mk := func(venue, date, from string, st model.Status) uint64 {
		id, _ := s.CreateReservation(ctx, &model.Reservation{Venue: venue, Date: date, TimeFrom: from, Status: st})
		return id
	}
	self := mk("Lab A", "2024-03-01", "08:00", model.StatusApproved)
	late := mk("Lab A", "2024-03-01", "13:00", model.StatusApproved)
	early := mk("Lab A", "2024-03-01", "09:00", model.StatusApproved)
	mk("Lab A", "2024-03-01", "10:00", model.StatusPending)
	mk("Lab B", "2024-03-01", "10:00", model.StatusApproved)
	mk("Lab A", "2024-03-02", "10:00", model.StatusApproved)

	got, err := s.ListApprovedAt(ctx, "Lab A", "2024-03-01", self)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != early || got[1].ID != late {
		t.Fatalf("ListApprovedAt = %+v", got)
	}
}
