package http

import "testing"

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{5000, "Rp 5.000"},
		{25000, "Rp 25.000"},
		{1250000, "Rp 1.250.000"},
		{999.6, "Rp 1.000"},
		{-25000, "-Rp 25.000"},
	}
	for _, tc := range cases {
		if got := formatRupiah(tc.in); got != tc.want {
			t.Errorf("formatRupiah(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Lunch  ", "Lunch"},
		{"Lunch\x00\x01", "Lunch"},
		{"multi\nline", "multi\nline"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
