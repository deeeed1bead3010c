// Package legacy moves data out of the old single-file JSON database into
// a Repository and repairs ownership on rows that predate created_by.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/equipment"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
)

// ErrSameFile is returned by CheckSource when the import file is the
// JSON store itself.
var ErrSameFile = errors.New("legacy: import file is the live JSON store")

// CheckSource refuses an import whose source resolves to storePath.
// Importing the store into itself reuses every user, skips every
// reservation and still reports success.
func CheckSource(file, storePath string) error {
	if storePath == "" {
		return nil
	}
	a, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("legacy: resolve %s: %w", file, err)
	}
	b, err := filepath.Abs(storePath)
	if err != nil {
		return fmt.Errorf("legacy: resolve %s: %w", storePath, err)
	}
	if a == b {
		return fmt.Errorf("%w: %s", ErrSameFile, a)
	}
	return nil
}

// File is the shape of the old data/db.json.
type File struct {
	Users        []User        `json:"users"`
	Reservations []Reservation `json:"reservations"`
}

type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Reservation keeps equipment and created_at raw: old files hold either a
// string or an array for the former and a string or epoch millis for the
// latter.
type Reservation struct {
	ID              uint64          `json:"id"`
	Venue           string          `json:"venue"`
	Date            string          `json:"date"`
	TimeFrom        string          `json:"time_from"`
	TimeTo          string          `json:"time_to"`
	Purpose         string          `json:"purpose"`
	Equipment       json.RawMessage `json:"equipment"`
	PersonName      string          `json:"person_name"`
	PersonSignature string          `json:"person_signature"`
	CreatedBy       *uint64         `json:"created_by"`
	Status          string          `json:"status"`
	CreatedAt       json.RawMessage `json:"created_at"`
}

// Report counts what an import did.
type Report struct {
	UsersCreated         int
	UsersReused          int
	ReservationsImported int
	ReservationsSkipped  int
	Items                int
}

func (r Report) String() string {
	return fmt.Sprintf("users: %d created, %d reused; reservations: %d imported, %d skipped; items: %d",
		r.UsersCreated, r.UsersReused, r.ReservationsImported, r.ReservationsSkipped, r.Items)
}

// Decode reads an old data file.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("legacy: decode: %w", err)
	}
	return &f, nil
}

// Import copies f into repo.  Users whose name already exists are reused;
// the rest get fresh ids and old ids are translated to the new ones.
// Reservations keep their id and are skipped when that id is taken.  Each
// reservation is written together with its items in one transaction.
func Import(ctx context.Context, repo repository.Repository, f *File) (Report, error) {
	var rep Report
	ids := make(map[uint64]uint64, len(f.Users))

	for _, u := range f.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			continue
		}
		if existing, err := repo.FindUserByUsername(ctx, name); err == nil {
			ids[u.ID] = existing.ID
			rep.UsersReused++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return rep, err
		}
		id, err := repo.CreateUser(ctx, name, u.Password, model.ParseRole(u.Role))
		if err != nil {
			return rep, fmt.Errorf("legacy: user %q: %w", name, err)
		}
		ids[u.ID] = id
		rep.UsersCreated++
	}

	for _, lr := range f.Reservations {
		if lr.ID != 0 {
			_, err := repo.GetReservation(ctx, lr.ID)
			if err == nil {
				rep.ReservationsSkipped++
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return rep, err
			}
		}

		r := toModel(lr, ids)
		items := equipment.ParseLegacy(lr.Equipment)
		err := repo.WithTransaction(ctx, func(tx repository.Repository) error {
			id, err := tx.CreateReservation(ctx, &r)
			if err != nil {
				return err
			}
			return tx.CreateReservationItems(ctx, id, equipment.ToModel(id, items))
		})
		if err != nil {
			return rep, fmt.Errorf("legacy: reservation %d: %w", lr.ID, err)
		}
		rep.ReservationsImported++
		rep.Items += len(items)
	}
	return rep, nil
}

func toModel(lr Reservation, ids map[uint64]uint64) model.Reservation {
	r := model.Reservation{
		ID:              lr.ID,
		Venue:           strings.TrimSpace(lr.Venue),
		Date:            strings.TrimSpace(lr.Date),
		TimeFrom:        strings.TrimSpace(lr.TimeFrom),
		TimeTo:          strings.TrimSpace(lr.TimeTo),
		Purpose:         lr.Purpose,
		Equipment:       equipment.LegacyText(lr.Equipment),
		PersonName:      strings.TrimSpace(lr.PersonName),
		PersonSignature: lr.PersonSignature,
		Status:          model.StatusPending,
		CreatedAt:       parseCreatedAt(lr.CreatedAt),
	}
	if r.Venue == "" {
		r.Venue = "Unknown"
	}
	if st, ok := model.ParseStatus(lr.Status); ok {
		r.Status = st
	}
	if lr.CreatedBy != nil {
		if id, ok := ids[*lr.CreatedBy]; ok {
			r.CreatedBy = &id
		}
	}
	return r
}

// parseCreatedAt accepts RFC 3339 strings and epoch milliseconds.  Anything
// else becomes the import time.
func parseCreatedAt(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Now().UTC()
}

// Backfill stores the resolved owner on every reservation that has no
// created_by yet and whose person name matches a user.  It returns the
// number of rows updated.
func Backfill(ctx context.Context, repo repository.Repository) (int, error) {
	users, err := repo.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := repo.ListUnownedReservations(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		owner := authz.ResolveOwner(r, users)
		if owner == nil {
			continue
		}
		if err := repo.SetReservationOwner(ctx, r.ID, *owner); err != nil {
			return n, fmt.Errorf("legacy: backfill #%d: %w", r.ID, err)
		}
		log.Printf("backfill: reservation %d -> created_by=%d", r.ID, *owner)
		n++
	}
	return n, nil
}
