// Package repository defines the persistence boundary used by the
// reservation and account services, the error values shared by every
// store implementation, and the SQL implementation built on gorm.
//
// Sentinel errors let higher layers such as handlers tell failure
// scenarios apart: ErrNotFound maps to 404, ErrDuplicateUsername to 409,
// ErrForbidden to 403.  Anything else coming out of a store is an I/O
// failure wrapped in *PersistenceError.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a user or reservation id (or username) does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned by CreateUser when the username is
// already taken.  The existing account is left untouched.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or an admin-only action.  Handlers translate it
// into an HTTP 403 response without further detail.
var ErrForbidden = errors.New("forbidden")

// ErrStaleStatus is returned by UpdateReservationStatus when the stored
// status no longer matches the expected one, i.e. another request changed
// the reservation first.
var ErrStaleStatus = errors.New("reservation status changed concurrently")

// PersistenceError wraps a storage failure together with the operation
// that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("repository: %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// persistErr wraps err unless it is nil or already one of the sentinels.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrStaleStatus) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Wrap is persistErr for store implementations living in sub-packages.
func Wrap(op string, err error) error { return persistErr(op, err) }
