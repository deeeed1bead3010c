// Package docstore is a Repository backed by a single JSON document on
// disk.  It suits development machines and small single-instance
// deployments, and it is the store used by the service tests.
//
// Writes are copy-on-write: a transaction works on a clone of the
// document, the clone is flushed to disk, and only then does it replace
// the live state.  A failing transaction therefore leaves both memory and
// disk untouched.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
)

type document struct {
	Users        []model.User            `json:"users"`
	Reservations []model.Reservation     `json:"reservations"`
	Items        []model.ReservationItem `json:"reservation_items"`
}

func (d *document) clone() *document {
	return &document{
		Users:        append([]model.User(nil), d.Users...),
		Reservations: append([]model.Reservation(nil), d.Reservations...),
		Items:        append([]model.ReservationItem(nil), d.Items...),
	}
}

// Store is the JSON document repository.  Readers share the lock; writers
// are serialized.
type Store struct {
	path string
	mu   sync.RWMutex
	doc  *document
}

var _ repository.Repository = (*Store)(nil)

// Open loads the document at path, creating an empty one in memory when
// the file does not exist yet.  The file is written on the first commit.
func Open(path string) (*Store, error) {
	doc := &document{}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("docstore: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(b, doc); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", path, err)
		}
	}
	for i := range doc.Users {
		doc.Users[i].Role = model.ParseRole(string(doc.Users[i].Role))
	}
	for i := range doc.Reservations {
		doc.Reservations[i].Items = nil
	}
	return &Store{path: path, doc: doc}, nil
}

// NewMemory returns a store that never touches the filesystem.
func NewMemory() *Store { return &Store{doc: &document{}} }

// WithTransaction runs fn on a private copy of the document and publishes
// the copy only after fn succeeded and the copy reached disk.  fn must use
// the tx it is given; calling methods on the Store itself from inside fn
// deadlocks.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.doc.clone()
	if err := fn(&view{doc: work}); err != nil {
		return err
	}
	if err := s.flush(work); err != nil {
		return repository.Wrap("flush", err)
	}
	s.doc = work
	return nil
}

func (s *Store) flush(doc *document) error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// read runs fn against the live document under the shared lock.
func (s *Store) read(ctx context.Context, fn func(v *view) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&view{doc: s.doc})
}

// write runs fn as a single-operation transaction.
func (s *Store) write(ctx context.Context, fn func(v *view) error) error {
	return s.WithTransaction(ctx, func(tx repository.Repository) error {
		return fn(tx.(*view))
	})
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (id uint64, err error) {
	err = s.write(ctx, func(v *view) error {
		id, err = v.CreateUser(ctx, username, passwordHash, role)
		return err
	})
	return id, err
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (u *model.User, err error) {
	err = s.read(ctx, func(v *view) error {
		u, err = v.FindUserByUsername(ctx, username)
		return err
	})
	return u, err
}

func (s *Store) FindUserByID(ctx context.Context, id uint64) (u *model.User, err error) {
	err = s.read(ctx, func(v *view) error {
		u, err = v.FindUserByID(ctx, id)
		return err
	})
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) (users []model.User, err error) {
	err = s.read(ctx, func(v *view) error {
		users, err = v.ListUsers(ctx)
		return err
	})
	return users, err
}

func (s *Store) UpdateUserPassword(ctx context.Context, id uint64, passwordHash string) error {
	return s.write(ctx, func(v *view) error { return v.UpdateUserPassword(ctx, id, passwordHash) })
}

func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) (id uint64, err error) {
	err = s.write(ctx, func(v *view) error {
		id, err = v.CreateReservation(ctx, r)
		return err
	})
	return id, err
}

func (s *Store) CreateReservationItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error {
	return s.write(ctx, func(v *view) error { return v.CreateReservationItems(ctx, reservationID, items) })
}

func (s *Store) GetReservation(ctx context.Context, id uint64) (r *model.Reservation, err error) {
	err = s.read(ctx, func(v *view) error {
		r, err = v.GetReservation(ctx, id)
		return err
	})
	return r, err
}

func (s *Store) ListReservations(ctx context.Context, f repository.ListFilter) (out []model.Reservation, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListReservations(ctx, f)
		return err
	})
	return out, err
}

func (s *Store) ListReservationsByOwner(ctx context.Context, ownerID uint64) (out []model.Reservation, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListReservationsByOwner(ctx, ownerID)
		return err
	})
	return out, err
}

func (s *Store) ListUnownedReservations(ctx context.Context) (out []model.Reservation, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListUnownedReservations(ctx)
		return err
	})
	return out, err
}

func (s *Store) ListApprovedAt(ctx context.Context, venue, date string, excludeID uint64) (out []model.Reservation, err error) {
	err = s.read(ctx, func(v *view) error {
		out, err = v.ListApprovedAt(ctx, venue, date, excludeID)
		return err
	})
	return out, err
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id uint64, from, to model.Status) error {
	return s.write(ctx, func(v *view) error { return v.UpdateReservationStatus(ctx, id, from, to) })
}

func (s *Store) SetReservationOwner(ctx context.Context, id, ownerID uint64) error {
	return s.write(ctx, func(v *view) error { return v.SetReservationOwner(ctx, id, ownerID) })
}

func (s *Store) DeleteReservation(ctx context.Context, id uint64) error {
	return s.write(ctx, func(v *view) error { return v.DeleteReservation(ctx, id) })
}
