package achievement

import (
	"testing"
	"time"
)

func TestCalculate(t *testing.T) {
	c := New(2025)
	tests := []struct {
		name   string
		start  string
		finish string
		target string
		want   float64
	}{
		{"within target", "01/06 - 08:00", "01/06 - 11:00", "4 H", 100},
		{"exactly target", "01/06 - 08:00", "01/06 - 12:00", "4 H", 100},
		{"half over target", "01/06 - 08:00", "01/06 - 14:00", "4 H", 50},
		{"twice target", "01/06 - 08:00", "01/06 - 16:00", "4 H", 0},
		{"beyond twice target clamps", "01/06 - 08:00", "01/06 - 20:00", "4 H", 0},
		{"across midnight", "01/06 - 22:00", "02/06 - 01:00", "2 H", 50},
		{"across month", "31/05 - 23:00", "01/06 - 01:00", "2H", 100},
		{"fractional target", "01/06 - 08:00", "01/06 - 10:15", "1.5 H", 50},
		{"unpadded stamps", "1/6 - 8:00", "1/6 - 9:30", "2 H", 100},
		{"zero elapsed", "01/06 - 08:00", "01/06 - 08:00", "1 H", 100},

		{"missing start", "", "01/06 - 11:00", "4 H", 0},
		{"missing finish", "01/06 - 08:00", "", "4 H", 0},
		{"missing target", "01/06 - 08:00", "01/06 - 11:00", "", 0},
		{"garbled target", "01/06 - 08:00", "01/06 - 11:00", "four hours", 0},
		{"unit only", "01/06 - 08:00", "01/06 - 11:00", "H", 0},
		{"zero target", "01/06 - 08:00", "01/06 - 11:00", "0 H", 0},
		{"negative target", "01/06 - 08:00", "01/06 - 11:00", "-4 H", 0},
		{"nan target", "01/06 - 08:00", "01/06 - 11:00", "NaN H", 0},
		{"garbled start", "yesterday", "01/06 - 11:00", "4 H", 0},
		{"garbled finish", "01/06 - 08:00", "01/06 11:00", "4 H", 0},
		{"impossible date", "31/02 - 08:00", "01/03 - 08:00", "4 H", 0},
		{"with year", "01/06/2025 - 08:00", "01/06 - 11:00", "4 H", 0},
		{"finish before start", "02/06 - 08:00", "01/06 - 08:00", "4 H", 100},
		{"no year rollover", "31/12 - 22:00", "01/01 - 02:00", "4 H", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Calculate(tt.start, tt.finish, tt.target)
			if got != tt.want {
				t.Errorf("Calculate(%q, %q, %q) = %v, want %v", tt.start, tt.finish, tt.target, got, tt.want)
			}
		})
	}
}

func TestCalculate_LeapDay(t *testing.T) {
	if got := New(2024).Calculate("29/02 - 08:00", "29/02 - 09:00", "1 H"); got != 100 {
		t.Errorf("leap year: got %v, want 100", got)
	}
	if got := New(2025).Calculate("29/02 - 08:00", "29/02 - 09:00", "1 H"); got != 0 {
		t.Errorf("non-leap year: got %v, want 0", got)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	c := New(2025)
	first := c.Calculate("01/06 - 08:00", "01/06 - 13:00", "4 H")
	for i := 0; i < 10; i++ {
		if got := c.Calculate("01/06 - 08:00", "01/06 - 13:00", "4 H"); got != first {
			t.Fatalf("call %d = %v, want %v", i, got, first)
		}
	}
	if first != 75 {
		t.Errorf("got %v, want 75", first)
	}
}

func TestCalculate_PackageLevel(t *testing.T) {
	if got := Calculate("01/06 - 08:00", "01/06 - 11:00", "4 H"); got != 100 {
		t.Errorf("Calculate() = %v, want 100", got)
	}
}

func TestScore_Range(t *testing.T) {
	for elapsed := -30.0; elapsed <= 20; elapsed += 0.25 {
		got := Score(elapsed, 4)
		if got < 0 || got > 100 {
			t.Fatalf("Score(%v, 4) = %v, out of [0, 100]", elapsed, got)
		}
	}
}

func TestScore_NegativeElapsed(t *testing.T) {
	tests := []struct {
		elapsed float64
		target  float64
		want    float64
	}{
		{-24, 4, 100},
		{-0.5, 1, 100},
		{-20, 4, 100},
		{-3, 0, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.elapsed, tt.target); got != tt.want {
			t.Errorf("Score(%v, %v) = %v, want %v", tt.elapsed, tt.target, got, tt.want)
		}
	}
}

func TestNew_ZeroYearUsesClock(t *testing.T) {
	if got := New(0).Year; got != time.Now().Year() {
		t.Errorf("New(0).Year = %d, want %d", got, time.Now().Year())
	}
	if got := New(1999).Year; got != 1999 {
		t.Errorf("New(1999).Year = %d, want 1999", got)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"4 H", 4, true},
		{"4H", 4, true},
		{" 8 H ", 8, true},
		{"1.5 H", 1.5, true},
		{"6", 6, true},
		{"", 0, false},
		{"H", 0, false},
		{"x H", 0, false},
		{"Inf H", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTarget(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseTarget(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatStamp_RoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)
	s := FormatStamp(ts)
	if s != "07/03 - 09:05" {
		t.Fatalf("FormatStamp() = %q, want %q", s, "07/03 - 09:05")
	}
	back, ok := New(2025).ParseStamp(s)
	if !ok || !back.Equal(ts) {
		t.Errorf("ParseStamp(%q) = (%v, %v), want %v", s, back, ok, ts)
	}
}

func TestFormatTarget(t *testing.T) {
	if got := FormatTarget(4); got != "4 H" {
		t.Errorf("FormatTarget(4) = %q, want %q", got, "4 H")
	}
}
