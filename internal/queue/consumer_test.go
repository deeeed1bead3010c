package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tle-lab/reservations/internal/model"
)

func TestFormatLine(t *testing.T) {
	ev := ReservationEvent{
		Type:          EventApproved,
		ReservationID: 7,
		ActorID:       1,
		Venue:         "Lab A",
		Date:          "2024-05-02",
		TimeFrom:      "09:00",
		TimeTo:        "10:00",
		FromStatus:    model.StatusPending,
		ToStatus:      model.StatusApproved,
		ConflictIDs:   []uint64{3, 4},
		OccurredAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	want := `[2024-05-01T12:00:00Z] reservation.approved | reservation_id=7 | actor_id=1 | venue="Lab A" | date=2024-05-02 | time=09:00-10:00 | status=pending->approved | conflicts=[3,4]` + "\n"
	if got := FormatLine(ev); got != want {
		t.Fatalf("FormatLine =\n%s\nwant\n%s", got, want)
	}
}

func TestHandleAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reservation.log")
	c := &AuditConsumer{LogPath: path}

	for _, id := range []uint64{1, 2} {
		body, _ := json.Marshal(ReservationEvent{Type: EventCreated, ReservationID: id, Venue: "Lab A", Date: "2024-05-02"})
		if err := c.Handle(body); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if err := c.Handle([]byte("{")); err == nil {
		t.Fatal("malformed body accepted")
	}
	if err := c.Handle([]byte(`{"type":""}`)); err == nil {
		t.Fatal("empty event accepted")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "reservation_id=2") {
		t.Fatalf("log contents = %q", b)
	}
}
