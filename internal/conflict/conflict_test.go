package conflict

import (
	"testing"

	"github.com/tle-lab/reservations/internal/model"
)

func approved(id uint64, venue, date, from, to string) model.Reservation {
	return model.Reservation{ID: id, Venue: venue, Date: date, TimeFrom: from, TimeTo: to, Status: model.StatusApproved}
}

func TestOverlapsSymmetric(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Reservation
		want bool
	}{
		{"contained", approved(1, "Lab A", "2024-01-01", "09:00", "12:00"), approved(2, "Lab A", "2024-01-01", "10:00", "11:00"), true},
		{"partial", approved(1, "Lab A", "2024-01-01", "09:00", "10:30"), approved(2, "Lab A", "2024-01-01", "10:00", "11:00"), true},
		{"identical", approved(1, "Lab A", "2024-01-01", "09:00", "10:00"), approved(2, "Lab A", "2024-01-01", "09:00", "10:00"), true},
		{"touching", approved(1, "Lab A", "2024-01-01", "09:00", "10:00"), approved(2, "Lab A", "2024-01-01", "10:00", "11:00"), false},
		{"disjoint", approved(1, "Lab A", "2024-01-01", "08:00", "09:00"), approved(2, "Lab A", "2024-01-01", "13:00", "14:00"), false},
		{"other venue", approved(1, "Lab A", "2024-01-01", "09:00", "10:00"), approved(2, "Lab B", "2024-01-01", "09:00", "10:00"), false},
		{"other date", approved(1, "Lab A", "2024-01-01", "09:00", "10:00"), approved(2, "Lab A", "2024-01-02", "09:00", "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []Policy{Conservative, Permissive} {
				if got := Overlaps(tt.a, tt.b, p); got != tt.want {
					t.Errorf("%s: Overlaps(a,b) = %v, want %v", p, got, tt.want)
				}
				if got := Overlaps(tt.b, tt.a, p); got != tt.want {
					t.Errorf("%s: Overlaps(b,a) = %v, want %v", p, got, tt.want)
				}
			}
		})
	}
}

func TestDetectReportsBothDirections(t *testing.T) {
	a := approved(1, "Lab A", "2024-01-01", "09:00", "11:00")
	b := approved(2, "Lab A", "2024-01-01", "10:00", "12:00")
	all := []model.Reservation{a, b}

	if got := Detect(a, all, Conservative); len(got) != 1 || got[0].ReservationID != 2 {
		t.Fatalf("Detect(a) = %+v, want [2]", got)
	}
	if got := Detect(b, all, Conservative); len(got) != 1 || got[0].ReservationID != 1 {
		t.Fatalf("Detect(b) = %+v, want [1]", got)
	}
}

func TestDetectTouchingBoundary(t *testing.T) {
	a := approved(1, "Lab A", "2024-01-01", "09:00", "10:00")
	b := approved(2, "Lab A", "2024-01-01", "10:00", "11:00")
	if got := Detect(a, []model.Reservation{b}, Conservative); len(got) != 0 {
		t.Fatalf("touching intervals reported %+v", got)
	}
}

func TestDetectSkipsSelfAndUnapproved(t *testing.T) {
	target := model.Reservation{ID: 5, Venue: "Lab A", Date: "2024-01-01", TimeFrom: "09:00", TimeTo: "10:00", Status: model.StatusPending}
	self := target
	self.Status = model.StatusApproved
	pending := approved(6, "Lab A", "2024-01-01", "09:00", "10:00")
	pending.Status = model.StatusPending
	cancelled := approved(7, "Lab A", "2024-01-01", "09:00", "10:00")
	cancelled.Status = model.StatusCancelled

	if got := Detect(target, []model.Reservation{self, pending, cancelled}, Conservative); len(got) != 0 {
		t.Fatalf("Detect = %+v, want none", got)
	}
}

func TestDetectOrdering(t *testing.T) {
	target := approved(1, "Lab A", "2024-01-01", "08:00", "18:00")
	cands := []model.Reservation{
		approved(9, "Lab A", "2024-01-01", "13:00", "14:00"),
		approved(4, "Lab A", "2024-01-01", "09:00", "10:00"),
		approved(3, "Lab A", "2024-01-01", "09:00", "09:30"),
	}
	got := Detect(target, cands, Conservative)
	want := []uint64{3, 4, 9}
	if len(got) != len(want) {
		t.Fatalf("Detect = %+v", got)
	}
	for i, id := range want {
		if got[i].ReservationID != id {
			t.Fatalf("position %d = %d, want %d", i, got[i].ReservationID, id)
		}
	}
}

// A reservation without times is a whole-day booking under the
// conservative policy and never conflicts under the permissive one.
func TestMissingBounds(t *testing.T) {
	allDay := approved(1, "Lab A", "2024-01-01", "", "")
	morning := approved(2, "Lab A", "2024-01-01", "09:00", "10:00")
	openEnd := approved(3, "Lab A", "2024-01-01", "15:00", "")
	evening := approved(4, "Lab A", "2024-01-01", "18:00", "19:00")
	garbled := approved(5, "Lab A", "2024-01-01", "nine", "10:00")

	tests := []struct {
		name         string
		a, b         model.Reservation
		conservative bool
		permissive   bool
	}{
		{"no times vs timed", allDay, morning, true, false},
		{"open end vs later", openEnd, evening, true, false},
		{"open end vs earlier", openEnd, morning, false, false},
		{"unparsable start", garbled, morning, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b, Conservative); got != tt.conservative {
				t.Errorf("conservative = %v, want %v", got, tt.conservative)
			}
			if got := Overlaps(tt.a, tt.b, Permissive); got != tt.permissive {
				t.Errorf("permissive = %v, want %v", got, tt.permissive)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"09:30", 570, true},
		{"9:30", 570, true},
		{"00:00", 0, true},
		{"24:00", 1440, true},
		{"13:45:00", 825, true},
		{"24:30", 0, false},
		{"12:60", 0, false},
		{"12:5", 0, false},
		{"", 0, false},
		{"noon", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseClock(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseClock(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	if ParsePolicy("Permissive") != Permissive {
		t.Fatal("permissive not parsed")
	}
	if ParsePolicy("") != Conservative || ParsePolicy("whatever") != Conservative {
		t.Fatal("default must be conservative")
	}
}

func TestSummary(t *testing.T) {
	target := approved(1, "Lab A", "2024-01-01", "09:00", "11:00")
	got := Summary(target, []Conflict{{ReservationID: 2, TimeFrom: "10:00", TimeTo: ""}})
	want := "Reservation #1 at Lab A on 2024-01-01 overlaps approved reservation(s) #2 (10:00-?)"
	if got != want {
		t.Fatalf("Summary = %q, want %q", got, want)
	}
	if Summary(target, nil) != "" {
		t.Fatal("empty summary expected")
	}
}
