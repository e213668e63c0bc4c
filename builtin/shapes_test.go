package builtin

import "testing"

func TestFoldKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"E-Mail  Adresse", "e mail adresse"},
		{"Café", "cafe"},
		{" Qty ", "qty"},
		{"TOTAL_PRICE", "total price"},
		{"unit-price (EUR)", "unit price eur"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := foldKey(tt.in); got != tt.want {
			t.Errorf("foldKey(%q): Expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestCanonNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1,234.50", "1234.5", true},
		{"1.234,50", "1234.5", true},
		{"€ 99", "99", true},
		{"$1,000", "1000", true},
		{"12,5", "12.5", true},
		{"1,234", "1234", true},
		{"-42", "-42", true},
		{"abc", "", false},
		{"", "", false},
		{"12.3.4", "", false},
	}
	for _, tt := range tests {
		d, ok := canonNumber(tt.in, "")
		if ok != tt.ok {
			t.Errorf("canonNumber(%q): Expected ok=%v, got %v", tt.in, tt.ok, ok)
			continue
		}
		if ok && d.String() != tt.want {
			t.Errorf("canonNumber(%q): Expected %s, got %s", tt.in, tt.want, d)
		}
	}
}

func TestParseDate(t *testing.T) {
	accepted := []string{"2026-01-31", "2026/01/31", "31.01.2026", "Jan 2, 2026", "2 January 2026"}
	for _, in := range accepted {
		if _, ok := parseDate(in, defaultDateLayouts); !ok {
			t.Errorf("Expected %q to parse as a date", in)
		}
	}
	rejected := []string{"", "tomorrow", "13/32/2026", "42"}
	for _, in := range rejected {
		if _, ok := parseDate(in, defaultDateLayouts); ok {
			t.Errorf("Expected %q not to parse as a date", in)
		}
	}
}

func TestLooksBool(t *testing.T) {
	for _, in := range []string{"true", "False", "YES", "no"} {
		if !looksBool(in) {
			t.Errorf("Expected %q to look boolean", in)
		}
	}
	for _, in := range []string{"1", "oui", ""} {
		if looksBool(in) {
			t.Errorf("Expected %q not to look boolean", in)
		}
	}
}
