package reservation

import (
	"context"
	"strings"
	"time"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/repository"
)

// Kind narrows a listing to lab or equipment reservations.
type Kind string

const (
	KindAll       Kind = ""
	KindLab       Kind = "lab"
	KindEquipment Kind = "equipment"
)

// ParseKind accepts "", "all", "lab" and "equipment".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAll, KindLab, KindEquipment:
		return k, nil
	case "all":
		return KindAll, nil
	}
	return KindAll, model.Invalid("kind", "must be lab or equipment")
}

func (k Kind) match(r model.Reservation) bool {
	switch k {
	case KindLab:
		return !r.IsEquipment()
	case KindEquipment:
		return r.IsEquipment()
	}
	return true
}

// ListMine returns the reservations owned by p, newest first.  Legacy rows
// without an owner id are included when their person name resolves to p.
func (s *Service) ListMine(ctx context.Context, p authz.Principal, kind Kind) ([]model.Reservation, error) {
	if !p.Authenticated() {
		return nil, repository.ErrForbidden
	}
	owned, err := s.repo.ListReservationsByOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	legacy, err := s.repo.ListUnownedReservations(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.resolveOwners(ctx, legacy); err != nil {
		return nil, err
	}

	out := make([]model.Reservation, 0, len(owned))
	for _, r := range owned {
		if kind.match(r) {
			id := p.UserID
			r.OwnerID = &id
			out = append(out, r)
		}
	}
	for _, r := range legacy {
		if r.OwnerID != nil && *r.OwnerID == p.UserID && kind.match(r) {
			out = append(out, r)
		}
	}
	byNewest(out)
	return out, nil
}

// ListAll returns every reservation, newest first.  Admin only.
func (s *Service) ListAll(ctx context.Context, p authz.Principal) ([]model.Reservation, error) {
	if !authz.CanAdminister(p) {
		return nil, repository.ErrForbidden
	}
	all, err := s.repo.ListReservations(ctx, repository.ListFilter{NewestFirst: true})
	if err != nil {
		return nil, err
	}
	if err := s.resolveOwners(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}

// CalendarEntry is the public view of an approved reservation: no names,
// no purpose.
type CalendarEntry struct {
	ID       uint64 `json:"id"`
	Venue    string `json:"venue"`
	Date     string `json:"date"`
	TimeFrom string `json:"time_from"`
	TimeTo   string `json:"time_to"`
}

// Calendar lists approved reservations by date together with how many
// lie before today and how many today or later.
type Calendar struct {
	Events   []CalendarEntry `json:"events"`
	Past     int             `json:"past"`
	Upcoming int             `json:"upcoming"`
}

// Calendar is public.
func (s *Service) Calendar(ctx context.Context, today time.Time) (*Calendar, error) {
	rows, err := s.repo.ListReservations(ctx, repository.ListFilter{Status: model.StatusApproved})
	if err != nil {
		return nil, err
	}
	day := today.Format("2006-01-02")
	cal := &Calendar{Events: make([]CalendarEntry, 0, len(rows))}
	for _, r := range rows {
		cal.Events = append(cal.Events, CalendarEntry{ID: r.ID, Venue: r.Venue, Date: r.Date, TimeFrom: r.TimeFrom, TimeTo: r.TimeTo})
		if r.Date < day {
			cal.Past++
		} else {
			cal.Upcoming++
		}
	}
	return cal, nil
}

// Stats summarizes the caller's own reservations.
type Stats struct {
	Total     int                  `json:"total"`
	Lab       int                  `json:"lab"`
	Equipment int                  `json:"equipment"`
	ByStatus  map[model.Status]int `json:"by_status"`
}

// Stats counts p's reservations per status and kind.
func (s *Service) Stats(ctx context.Context, p authz.Principal) (*Stats, error) {
	mine, err := s.ListMine(ctx, p, KindAll)
	if err != nil {
		return nil, err
	}
	st := &Stats{ByStatus: map[model.Status]int{
		model.StatusPending:   0,
		model.StatusApproved:  0,
		model.StatusDeclined:  0,
		model.StatusCancelled: 0,
	}}
	for _, r := range mine {
		st.Total++
		if r.IsEquipment() {
			st.Equipment++
		} else {
			st.Lab++
		}
		st.ByStatus[r.Status]++
	}
	return st, nil
}
