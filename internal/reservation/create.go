package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/conflict"
	"github.com/tle-lab/reservations/internal/equipment"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/queue"
	"github.com/tle-lab/reservations/internal/repository"
)

// CreateInput is a reservation request as submitted.  Equipment may be
// given as free text ("Projector (x2), Cable") or as parallel
// ItemNames/ItemQuantities lists; the lists win when both are present.
type CreateInput struct {
	Venue           string   `json:"venue"`
	Date            string   `json:"date"`
	TimeFrom        string   `json:"time_from"`
	TimeTo          string   `json:"time_to"`
	Purpose         string   `json:"purpose"`
	Equipment       string   `json:"equipment"`
	ItemNames       []string `json:"equipment_name"`
	ItemQuantities  []string `json:"equipment_qty"`
	PersonName      string   `json:"person_name"`
	PersonSignature string   `json:"person_signature"`
}

// Create stores a new pending lab reservation owned by p.
func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateInput) (*model.Reservation, error) {
	return s.create(ctx, p, in, false)
}

// CreateEquipment stores a new pending equipment-only reservation.  The
// venue is always the equipment pseudo-venue and at least one item is
// required.
func (s *Service) CreateEquipment(ctx context.Context, p authz.Principal, in CreateInput) (*model.Reservation, error) {
	in.Venue = model.EquipmentVenue
	return s.create(ctx, p, in, true)
}

func (s *Service) create(ctx context.Context, p authz.Principal, in CreateInput, needItems bool) (*model.Reservation, error) {
	if !authz.CanCreate(p) {
		return nil, repository.ErrForbidden
	}
	r, items, err := s.build(p, in)
	if err != nil {
		return nil, err
	}
	if needItems && len(items) == 0 {
		return nil, model.Invalid("equipment", "at least one item is required")
	}

	err = s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		id, err := tx.CreateReservation(ctx, r)
		if err != nil {
			return err
		}
		return tx.CreateReservationItems(ctx, id, equipment.ToModel(id, items))
	})
	if err != nil {
		return nil, err
	}
	r.Items = equipment.ToModel(r.ID, items)
	owner := p.UserID
	r.OwnerID = &owner

	s.publish(ctx, queue.NewEvent(queue.EventCreated, *r, p.UserID, s.now()))
	return r, nil
}

// build validates in and turns it into an unsaved reservation.
func (s *Service) build(p authz.Principal, in CreateInput) (*model.Reservation, []equipment.Item, error) {
	venue := clean(in.Venue)
	if venue == "" {
		return nil, nil, model.Invalid("venue", "is required")
	}
	date := clean(in.Date)
	if date == "" {
		return nil, nil, model.Invalid("date", "is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, nil, model.Invalid("date", "must be YYYY-MM-DD")
	}
	from, err := normalizeClock("time_from", in.TimeFrom, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := normalizeClock("time_to", in.TimeTo, true)
	if err != nil {
		return nil, nil, err
	}
	if from != "" && to != "" && from >= to {
		return nil, nil, model.Invalid("time_to", "must be after time_from")
	}

	var items []equipment.Item
	if len(in.ItemNames) > 0 {
		items = equipment.FromFields(in.ItemNames, in.ItemQuantities)
	} else {
		items = equipment.Parse(in.Equipment)
	}

	person := clean(in.PersonName)
	if person == "" {
		person = p.Username
	}
	owner := p.UserID
	r := &model.Reservation{
		Venue:           venue,
		Date:            date,
		TimeFrom:        from,
		TimeTo:          to,
		Purpose:         clean(in.Purpose),
		Equipment:       equipment.Format(items),
		PersonName:      person,
		PersonSignature: clean(in.PersonSignature),
		CreatedBy:       &owner,
		Status:          model.StatusPending,
		CreatedAt:       s.now().UTC(),
	}
	return r, items, nil
}

// normalizeClock returns s as zero-padded HH:MM.  24:00 is accepted only
// as an end time.
func normalizeClock(field, s string, end bool) (string, error) {
	s = clean(s)
	if s == "" {
		return "", nil
	}
	m, ok := conflict.ParseClock(s)
	if !ok || (m == 24*60 && !end) {
		return "", model.Invalid(field, "must be HH:MM")
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}
