package anomaly

import (
	"math"
	"testing"
	"time"
)

func TestFeaturesFrom(t *testing.T) {
	// 2024-05-01 is a Wednesday
	ts := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	f := FeaturesFrom(150.0, ts)

	if f.Amount != 150.0 {
		t.Errorf("Amount = %v", f.Amount)
	}
	if f.HourOfDay != 14 {
		t.Errorf("HourOfDay = %d, want 14", f.HourOfDay)
	}
	if f.DayOfWeek != 2 {
		t.Errorf("DayOfWeek = %d, want 2 (Wednesday, Monday=0)", f.DayOfWeek)
	}
	if want := math.Log1p(150.0); f.AmountLog != want {
		t.Errorf("AmountLog = %v, want %v", f.AmountLog, want)
	}
}

func TestFeaturesFromWeekdayConvention(t *testing.T) {
	tests := []struct {
		day  int // day of month in May 2024
		want int
	}{
		{6, 0},  // Monday
		{7, 1},  // Tuesday
		{11, 5}, // Saturday
		{12, 6}, // Sunday
	}
	for _, tt := range tests {
		ts := time.Date(2024, 5, tt.day, 0, 0, 0, 0, time.UTC)
		if got := FeaturesFrom(1, ts).DayOfWeek; got != tt.want {
			t.Errorf("DayOfWeek(%v) = %d, want %d", ts.Weekday(), got, tt.want)
		}
	}
}

func TestFeaturesFromNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2024, 5, 1, 3, 0, 0, 0, loc) // 22:00 UTC the day before
	f := FeaturesFrom(1, ts)
	if f.HourOfDay != 22 {
		t.Errorf("HourOfDay = %d, want 22", f.HourOfDay)
	}
}
