package model

import "strings"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

// transitions lists every permitted status change.  Declined and
// cancelled are terminal; nothing moves back to pending.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDeclined, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// ParseStatus normalizes a stored or submitted status string.  The second
// return value is false for unknown strings.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApproved, StatusDeclined, StatusCancelled:
		return st, true
	}
	return "", false
}

// CanTransition reports whether a reservation in state from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }
