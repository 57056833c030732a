package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanonicalAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.50", "12.50"},
		{"12.5", "12.5"},
		{"50", "50"},
		{"50.00", "50.00"},
		{"0.001", "0.001"},
		{"1000000", "1000000"},
	}
	for _, tc := range cases {
		d := decimal.RequireFromString(tc.in)
		if got := CanonicalAmount(d); got != tc.want {
			t.Errorf("CanonicalAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
