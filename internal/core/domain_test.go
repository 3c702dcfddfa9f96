package core

import "testing"

func TestPeriodKeyValidate(t *testing.T) {
	cases := []struct {
		year, month int
		ok          bool
	}{
		{2024, 1, true},
		{2024, 12, true},
		{2024, 0, false},
		{2024, 13, false},
		{2024, MonthAllTime, false},
		{0, 5, false},
	}
	for _, tc := range cases {
		err := NewPeriodKey(tc.year, tc.month).Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("Validate(%d, %d) err=%v, want ok=%v", tc.year, tc.month, err, tc.ok)
		}
	}
}

func TestPeriodKeyBefore(t *testing.T) {
	a := NewPeriodKey(2024, 6)
	b := NewPeriodKey(2024, 7)
	c := NewPeriodKey(2025, 1)
	if !a.Before(b) || !b.Before(c) || b.Before(a) || a.Before(a) {
		t.Fatal("PeriodKey ordering is wrong")
	}
}

func TestPeriodKeyTitle(t *testing.T) {
	cases := []struct {
		key  PeriodKey
		want string
	}{
		{NewPeriodKey(2024, 3), "March 2024"},
		{NewPeriodKey(2024, MonthWholeYear), "2024 Summary"},
		{NewPeriodKey(0, MonthAllTime), "All Time"},
	}
	for _, tc := range cases {
		if got := tc.key.Title(); got != tc.want {
			t.Fatalf("Title(%v) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestMonthShort(t *testing.T) {
	if MonthShort(1) != "Jan" || MonthShort(9) != "Sep" || MonthShort(12) != "Dec" {
		t.Fatal("unexpected month abbreviation")
	}
	if MonthShort(0) != "" || MonthShort(13) != "" {
		t.Fatal("out of range month should return empty string")
	}
}

func TestCategorySet(t *testing.T) {
	s := NewCategorySet("A", "B")
	if !s.Has("A") || s.Has("C") {
		t.Fatal("membership is wrong")
	}
	s.Add("C")
	if !s.Has("C") {
		t.Fatal("Add did not register the category")
	}
}
