package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseLocalDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "valid", input: "2026-01-22", want: NewDate(2026, time.January, 22)},
		{name: "valid leap day", input: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{name: "impossible day", input: "2026-02-31", wantErr: true},
		{name: "non leap feb 29", input: "2026-02-29", wantErr: true},
		{name: "month zero", input: "2026-00-10", wantErr: true},
		{name: "month thirteen", input: "2026-13-10", wantErr: true},
		{name: "too short", input: "2026-1-2", wantErr: true},
		{name: "slashes", input: "2026/01/22", wantErr: true},
		{name: "timestamp", input: "2026-01-22T10:00:00Z", wantErr: true},
		{name: "letters", input: "yyyy-mm-dd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocalDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedDate) {
					t.Fatalf("ParseLocalDate(%q) error = %v, want ErrMalformedDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocalDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseLocalDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTodayDateStringRoundTrip(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	for _, zone := range zones {
		t.Run(zone, func(t *testing.T) {
			loc, err := time.LoadLocation(zone)
			if err != nil {
				t.Skipf("zone %s unavailable: %v", zone, err)
			}
			now := time.Date(2026, time.March, 8, 23, 30, 0, 0, loc)
			s := TodayDateString(now)
			d, err := ParseLocalDate(s)
			if err != nil {
				t.Fatalf("round trip parse failed: %v", err)
			}
			if !d.Equal(DateOf(now)) {
				t.Fatalf("round trip mismatch: %v != %v", d, DateOf(now))
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b Date
		want int
	}{
		{NewDate(2026, time.January, 22), NewDate(2026, time.January, 22), 0},
		{NewDate(2026, time.January, 22), NewDate(2026, time.February, 5), 14},
		{NewDate(2026, time.February, 5), NewDate(2026, time.January, 22), -14},
		// DST transition weekend in most US zones; UTC normalization keeps it exact.
		{NewDate(2026, time.March, 7), NewDate(2026, time.March, 9), 2},
		{NewDate(2026, time.January, 22), NewDate(2026, time.July, 23), 182},
	}
	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("DaysBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPeriodAt(t *testing.T) {
	sched := PaySchedule{Anchor: NewDate(2026, time.January, 22), Days: 14}
	tests := []struct {
		name      string
		today     Date
		wantStart Date
		wantEnd   Date
	}{
		{
			name:      "anchor day starts period zero",
			today:     NewDate(2026, time.January, 22),
			wantStart: NewDate(2026, time.January, 22),
			wantEnd:   NewDate(2026, time.February, 4),
		},
		{
			name:      "last day of period zero",
			today:     NewDate(2026, time.February, 4),
			wantStart: NewDate(2026, time.January, 22),
			wantEnd:   NewDate(2026, time.February, 4),
		},
		{
			name:      "first day of period one",
			today:     NewDate(2026, time.February, 5),
			wantStart: NewDate(2026, time.February, 5),
			wantEnd:   NewDate(2026, time.February, 18),
		},
		{
			name:      "before the anchor",
			today:     NewDate(2026, time.January, 10),
			wantStart: NewDate(2026, time.January, 8),
			wantEnd:   NewDate(2026, time.January, 21),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sched.PeriodAt(tt.today)
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Fatalf("PeriodAt(%v) = [%v, %v], want [%v, %v]",
					tt.today, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if !got.Contains(tt.today) {
				t.Fatalf("period [%v, %v] should contain %v", got.Start, got.End, tt.today)
			}
		})
	}
}

func TestPayPeriodContains(t *testing.T) {
	p := PayPeriod{Start: NewDate(2026, time.January, 22), End: NewDate(2026, time.February, 4)}
	if !p.Contains(NewDate(2026, time.January, 22)) {
		t.Error("start day should be inclusive")
	}
	if !p.Contains(NewDate(2026, time.February, 4)) {
		t.Error("end day should be inclusive")
	}
	if p.Contains(NewDate(2026, time.January, 21)) {
		t.Error("day before start should be outside")
	}
	if p.Contains(NewDate(2026, time.February, 5)) {
		t.Error("day after end should be outside")
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{0, 14, 0},
		{13, 14, 0},
		{14, 14, 1},
		{-1, 14, -1},
		{-14, 14, -1},
		{-15, 14, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
