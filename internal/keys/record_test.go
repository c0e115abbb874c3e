package keys

import (
	"testing"

	"snpedia/internal/models"
)

func TestRecord(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain rs id", "Rs123", "raw_data/Rs123.json"},
		{"spaces become hyphens", "Rs53576 (G;G)", "raw_data/Rs53576-(G;G).json"},
		{"slashes cannot nest keys", "APOE/E4", "raw_data/APOE_E4.json"},
		{"surrounding space trimmed", "  Gs140 ", "raw_data/Gs140.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Record(models.Record{Name: tc.input}); got != tc.expected {
				t.Fatalf("Record(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestRecord_CaseIsSignificant(t *testing.T) {
	upper := Record(models.Record{Name: "Rs1(A;G)"})
	lower := Record(models.Record{Name: "Rs1(a;g)"})
	if upper == lower {
		t.Fatalf("titles differing in case share the key %q", upper)
	}
}
