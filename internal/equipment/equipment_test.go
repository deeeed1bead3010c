package equipment

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Item
	}{
		{"paren and bare", "Projector (x2), Cable", []Item{{"Projector", 2}, {"Cable", 1}}},
		{"suffix form", "Microphone x3, Speaker X2", []Item{{"Microphone", 3}, {"Speaker", 2}}},
		{"upper case paren", "Laptop (X4)", []Item{{"Laptop", 4}}},
		{"no space before paren", "Tripod(x5)", []Item{{"Tripod", 5}}},
		{"empty segments dropped", " , Cable ,, ", []Item{{"Cable", 1}}},
		{"zero quantity clamps", "Cable (x0)", []Item{{"Cable", 1}}},
		{"overflowing quantity clamps", "Cable (x99999999999999999999999)", []Item{{"Cable", 1}}},
		{"quantity without name kept whole", "(x2)", []Item{{"(x2)", 1}}},
		{"bare x token is a name", "x5", []Item{{"x5", 1}}},
		{"empty string", "", []Item{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	cases := [][]Item{
		{{"Projector", 2}, {"Cable", 1}},
		{{"Cable x2", 1}},
		{{"Adapter (x2)", 3}},
		{{"Speaker", 10}, {"Mixer", 1}, {"Stand", 4}},
	}
	for _, items := range cases {
		text := Format(items)
		if got := Parse(text); !reflect.DeepEqual(got, items) {
			t.Errorf("Parse(Format(%v)) = %v (text %q)", items, got, text)
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Item{{"Projector", 2}, {"Cable", 1}})
	if want := "Projector (x2), Cable (x1)"; got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFromFields(t *testing.T) {
	got := FromFields(
		[]string{" Projector ", "", "HDMI, long", "Cable"},
		[]string{"2", "7", "abc"},
	)
	want := []Item{{"Projector", 2}, {"HDMI long", 1}, {"Cable", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FromFields = %#v, want %#v", got, want)
	}
	if back := Parse(Format(got)); !reflect.DeepEqual(back, got) {
		t.Fatalf("round trip of form input = %#v", back)
	}
}

func TestParseLegacy(t *testing.T) {
	tests := []struct {
		raw  string
		want []Item
		text string
	}{
		{`"Projector (x2), Cable"`, []Item{{"Projector", 2}, {"Cable", 1}}, "Projector (x2), Cable"},
		{`["Projector","Cable",null]`, []Item{{"Projector", 1}, {"Cable", 1}}, "Projector, Cable"},
		{`null`, []Item{}, ""},
		{`42`, []Item{}, ""},
	}
	for _, tt := range tests {
		if got := ParseLegacy(json.RawMessage(tt.raw)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseLegacy(%s) = %#v, want %#v", tt.raw, got, tt.want)
		}
		if got := LegacyText(json.RawMessage(tt.raw)); got != tt.text {
			t.Errorf("LegacyText(%s) = %q, want %q", tt.raw, got, tt.text)
		}
	}
}
