package core

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"12.34", "12.34", true},
		{"-7.5", "-7.5", true},
		{" 3 ", "3", true},
		{"0", "0", true},
		{"", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(decimal.NewFromInt(50), decimal.NewFromInt(100)); got != 0.5 {
		t.Fatalf("Ratio(50, 100) = %v", got)
	}
	if got := Ratio(decimal.NewFromInt(7), decimal.Zero); !math.IsNaN(got) {
		t.Fatalf("Ratio(7, 0) = %v, want NaN", got)
	}
	if got := Ratio(decimal.Zero, decimal.Zero); !math.IsNaN(got) {
		t.Fatalf("Ratio(0, 0) = %v, want NaN", got)
	}
}

func TestNegligible(t *testing.T) {
	if !Negligible(decimal.RequireFromString("0.0009")) {
		t.Fatal("0.0009 should be negligible")
	}
	if !Negligible(decimal.RequireFromString("-0.0009")) {
		t.Fatal("-0.0009 should be negligible")
	}
	if Negligible(decimal.RequireFromString("0.001")) {
		t.Fatal("0.001 should not be negligible")
	}
}
