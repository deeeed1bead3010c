// Package equipment converts between itemized equipment lists and the
// combined display string stored on a reservation, e.g.
// "Projector (x2), HDMI Cable (x1)".
//
// Parsing never fails: a segment that carries no recognizable quantity is
// kept whole with quantity 1.
package equipment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tle-lab/reservations/internal/model"
)

// Item is one equipment line.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

var (
	parenQty  = regexp.MustCompile(`(?i)^(.*?)\s*\(x(\d+)\)$`)
	suffixQty = regexp.MustCompile(`(?i)^(.*?)\s+x(\d+)$`)
)

// Parse splits a combined equipment string into items.  Segments are
// comma separated; each may end in "(xN)" or " xN".
func Parse(text string) []Item {
	items := []Item{}
	for _, seg := range strings.Split(text, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		items = append(items, parseSegment(seg))
	}
	return items
}

func parseSegment(seg string) Item {
	for _, re := range []*regexp.Regexp{parenQty, suffixQty} {
		m := re.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		return Item{Name: name, Quantity: quantity(m[2])}
	}
	return Item{Name: seg, Quantity: 1}
}

// quantity converts a captured digit run; zero and overflowing values
// collapse to 1 so every item keeps a positive quantity.
func quantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// FromFields builds items from the repeated equipment_name /
// equipment_qty form fields.  Names and quantities pair up by index;
// blank names are skipped and a missing or invalid quantity becomes 1.
func FromFields(names, quantities []string) []Item {
	items := make([]Item, 0, len(names))
	for i, raw := range names {
		name := normalizeName(raw)
		if name == "" {
			continue
		}
		q := 1
		if i < len(quantities) {
			q = quantity(quantities[i])
		}
		items = append(items, Item{Name: name, Quantity: q})
	}
	return items
}

// normalizeName trims the name and replaces commas, which would otherwise
// split the item in two when the formatted string is parsed again.
func normalizeName(s string) string {
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Format renders items as "Name (xN)" joined by ", ".  Parse(Format(items))
// returns the same items for any list produced by FromFields or Parse.
func Format(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		q := it.Quantity
		if q < 1 {
			q = 1
		}
		parts = append(parts, fmt.Sprintf("%s (x%d)", it.Name, q))
	}
	return strings.Join(parts, ", ")
}

// ParseLegacy reads the equipment field of the old JSON data file, which
// is either a string or an array of names.  Anything else yields no items.
func ParseLegacy(raw json.RawMessage) []Item {
	if len(raw) == 0 {
		return []Item{}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Parse(text)
	}
	var names []any
	if err := json.Unmarshal(raw, &names); err == nil {
		items := make([]Item, 0, len(names))
		for _, n := range names {
			name := strings.TrimSpace(fmt.Sprint(n))
			if n == nil || name == "" {
				continue
			}
			items = append(items, Item{Name: name, Quantity: 1})
		}
		return items
	}
	return []Item{}
}

// LegacyText returns the display string for a legacy equipment value:
// strings are kept as written and arrays are joined with ", ".
func LegacyText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var names []any
	if err := json.Unmarshal(raw, &names); err == nil {
		parts := make([]string, 0, len(names))
		for _, n := range names {
			if n != nil {
				parts = append(parts, fmt.Sprint(n))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// ToModel converts items into reservation rows for reservationID.
func ToModel(reservationID uint64, items []Item) []model.ReservationItem {
	out := make([]model.ReservationItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.ReservationItem{ReservationID: reservationID, Name: it.Name, Quantity: it.Quantity})
	}
	return out
}

// FromModel converts stored rows back into items.
func FromModel(rows []model.ReservationItem) []Item {
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, Item{Name: r.Name, Quantity: r.Quantity})
	}
	return out
}
