package events

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Event
	}{
		{"click", Event{Name: "click"}},
		{"~!click", Event{Name: "click", Once: true, Capture: true}},
		{"&scroll", Event{Name: "scroll", Passive: true}},
		{"&~!touch", Event{Name: "touch", Passive: true, Once: true, Capture: true}},
		{"!~odd", Event{Name: "~odd", Capture: true}},
		{"", Event{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.name); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
			// Second lookup is served from the cache.
			if got := Parse(tt.name); got != tt.want {
				t.Errorf("cached Parse(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, name := range []string{"click", "~!click", "&~!touch", "&scroll"} {
		if got := Format(Parse(name)); got != name {
			t.Errorf("Format(Parse(%q)) = %q", name, got)
		}
	}
}
