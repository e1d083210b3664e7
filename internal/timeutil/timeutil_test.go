package timeutil

import (
	"testing"
	"time"
)

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name      string
		input     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midday UTC",
			input:     time.Date(2025, 3, 15, 14, 30, 12, 0, time.UTC),
			wantStart: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		{
			name:      "exact midnight stays on its day",
			input:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		{
			name:      "keeps the input location",
			input:     time.Date(2025, 11, 2, 8, 0, 0, 0, loc),
			wantStart: time.Date(2025, 11, 2, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2025, 11, 2, 23, 59, 59, int(999*time.Millisecond), loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DayBounds(tt.input)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
			if start.Location() != tt.input.Location() {
				t.Errorf("start location = %v, want %v", start.Location(), tt.input.Location())
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same day",
			a:    time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "adjacent days",
			a:    time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "converts b into a's location",
			a:    time.Date(2025, 3, 15, 0, 30, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("west", -2*60*60)),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay(%v, %v) = %t, want %t", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
