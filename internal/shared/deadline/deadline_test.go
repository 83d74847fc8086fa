package deadline

import (
	"testing"
	"time"
)

func TestComputeLandsAtEndOfDay(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	got := Compute(base, 5, NewCalendar(nil))
	want := time.Date(2026, 3, 15, 23, 59, 59, 999999999, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, got)
	}
}

func TestComputeRollsPastCalendarExceptions(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cal := NewCalendar([]time.Time{
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	})
	got := Compute(base, 5, cal)
	want := time.Date(2026, 3, 17, 23, 59, 59, 999999999, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, got)
	}
}

func TestIsTimelyBoundaryIsInclusive(t *testing.T) {
	limit := time.Date(2026, 4, 1, 23, 59, 59, 999999999, time.UTC)
	if !IsTimely(limit, limit) {
		t.Fatalf("submission at the exact deadline must be timely")
	}
	if IsTimely(limit.Add(time.Microsecond), limit) {
		t.Fatalf("submission one microsecond late must be untimely")
	}
}

func TestWithinWindow(t *testing.T) {
	start := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before_opening", start.Add(-time.Second), false},
		{"at_opening", start, true},
		{"midway", start.Add(6 * time.Hour), true},
		{"at_closing", end, true},
		{"after_closing", end.Add(time.Nanosecond), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinWindow(tc.now, start, end); got != tc.want {
				t.Fatalf("WithinWindow(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
