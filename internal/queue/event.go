// Package queue carries reservation events over RabbitMQ: the payload
// type, a publisher used by the API server and the consumer run by
// cmd/auditd.
package queue

import (
	"time"

	"github.com/tle-lab/reservations/internal/model"
)

// QueueName is the durable queue every reservation event goes to.
const QueueName = "reservation.events"

// EventType names what happened to a reservation.
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventApproved  EventType = "reservation.approved"
	EventDeclined  EventType = "reservation.declined"
	EventCancelled EventType = "reservation.cancelled"
	EventDeleted   EventType = "reservation.deleted"
)

// ReservationEvent is published after a reservation change has been
// committed.  It carries enough context for the audit log without a
// database lookup.
type ReservationEvent struct {
	Type          EventType    `json:"type"`
	ReservationID uint64       `json:"reservation_id"`
	ActorID       uint64       `json:"actor_id"`
	Venue         string       `json:"venue"`
	Date          string       `json:"date"`
	TimeFrom      string       `json:"time_from,omitempty"`
	TimeTo        string       `json:"time_to,omitempty"`
	FromStatus    model.Status `json:"from_status,omitempty"`
	ToStatus      model.Status `json:"to_status,omitempty"`
	ConflictIDs   []uint64     `json:"conflict_ids,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// NewEvent fills the reservation fields of an event.
func NewEvent(t EventType, r model.Reservation, actorID uint64, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		ActorID:       actorID,
		Venue:         r.Venue,
		Date:          r.Date,
		TimeFrom:      r.TimeFrom,
		TimeTo:        r.TimeTo,
		ToStatus:      r.Status,
		OccurredAt:    at.UTC(),
	}
}
