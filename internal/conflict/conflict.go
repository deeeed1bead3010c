// Package conflict finds approved reservations that double-book a venue.
//
// Two reservations conflict when they share venue and date and their time
// ranges intersect as open intervals: a booking that ends at 10:00 does
// not collide with one that starts at 10:00.  The result is advisory; the
// caller decides what to do with it.
package conflict

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tle-lab/reservations/internal/model"
)

// Policy decides how reservations without a complete time range are
// compared.
type Policy int

const (
	// Conservative treats a missing start as 00:00 and a missing end as
	// 24:00, so a reservation without times blocks the whole day.
	Conservative Policy = iota
	// Permissive never reports a conflict when either side lacks a
	// usable start or end time.
	Permissive
)

// ParsePolicy maps "conservative" / "permissive" (case-insensitive) onto
// a Policy; anything else yields Conservative.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "permissive") {
		return Permissive
	}
	return Conservative
}

func (p Policy) String() string {
	if p == Permissive {
		return "permissive"
	}
	return "conservative"
}

// Conflict identifies one reservation that overlaps the target.
type Conflict struct {
	ReservationID uint64 `json:"reservation_id"`
	TimeFrom      string `json:"time_from"`
	TimeTo        string `json:"time_to"`
	PersonName    string `json:"person_name"`
}

const dayMinutes = 24 * 60

// Detect returns the approved reservations among candidates that overlap
// target, ordered by start time and then id.  target itself is skipped
// when it appears in candidates.
func Detect(target model.Reservation, candidates []model.Reservation, policy Policy) []Conflict {
	out := []Conflict{}
	for _, c := range candidates {
		if c.ID == target.ID || c.Status != model.StatusApproved {
			continue
		}
		if !Overlaps(target, c, policy) {
			continue
		}
		out = append(out, Conflict{
			ReservationID: c.ID,
			TimeFrom:      c.TimeFrom,
			TimeTo:        c.TimeTo,
			PersonName:    c.PersonName,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimeFrom != out[j].TimeFrom {
			return out[i].TimeFrom < out[j].TimeFrom
		}
		return out[i].ReservationID < out[j].ReservationID
	})
	return out
}

// Overlaps reports whether a and b book the same venue on the same date
// with intersecting time ranges.  It is symmetric in a and b.
func Overlaps(a, b model.Reservation, policy Policy) bool {
	if strings.TrimSpace(a.Venue) != strings.TrimSpace(b.Venue) || strings.TrimSpace(a.Date) != strings.TrimSpace(b.Date) {
		return false
	}
	aFrom, aTo, ok := window(a, policy)
	if !ok {
		return false
	}
	bFrom, bTo, ok := window(b, policy)
	if !ok {
		return false
	}
	return aFrom < bTo && aTo > bFrom
}

// window returns the reservation's range in minutes since midnight.
func window(r model.Reservation, policy Policy) (from, to int, ok bool) {
	from, okFrom := ParseClock(r.TimeFrom)
	to, okTo := ParseClock(r.TimeTo)
	if policy == Permissive && (!okFrom || !okTo) {
		return 0, 0, false
	}
	if !okFrom {
		from = 0
	}
	if !okTo {
		to = dayMinutes
	}
	return from, to, true
}

// ParseClock converts "HH:MM" (or "HH:MM:SS") into minutes since
// midnight.  "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, false
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return h*60 + m, true
}

// Summary renders the advisory text shown to the admin.
func Summary(target model.Reservation, conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("#%d (%s-%s)", c.ReservationID, orBlank(c.TimeFrom), orBlank(c.TimeTo)))
	}
	return fmt.Sprintf("Reservation #%d at %s on %s overlaps approved reservation(s) %s",
		target.ID, target.Venue, target.Date, strings.Join(parts, ", "))
}

func orBlank(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
