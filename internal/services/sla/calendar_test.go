package sla

import (
	"errors"
	"testing"
	"time"

	"github.com/deskhive/slacore/internal/models"
)

// weekdayCalendar builds a Mon-Fri 09:00-17:00 calendar, the fixture
// most tests share. January 2025: Mon Jan 6 .. Fri Jan 10 is a full
// working week, Sat Jan 11 / Sun Jan 12 the weekend after it.
func weekdayCalendar() models.BusinessCalendar {
	c := models.BusinessCalendar{Name: "standard"}
	for day := 1; day <= 5; day++ {
		c.WorkingHours = append(c.WorkingHours, models.WorkingHours{
			DayOfWeek:    day,
			StartTime:    "09:00",
			EndTime:      "17:00",
			IsWorkingDay: true,
		})
	}
	return c
}

func mustSchedule(t *testing.T, c models.BusinessCalendar) *Schedule {
	t.Helper()
	s, err := NewSchedule(c)
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}
	return s
}

func TestIsBusinessTime(t *testing.T) {
	s := mustSchedule(t, weekdayCalendar())

	tests := []struct {
		name string
		time time.Time
		want bool
	}{
		{
			name: "Monday 10:00 - business time",
			time: time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "Monday 09:00 - window start is inclusive",
			time: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "Monday 17:00 - window end is exclusive",
			time: time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "Monday 16:59 - last business minute",
			time: time.Date(2025, 1, 6, 16, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "Monday 07:00 - before work",
			time: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "Saturday 10:00 - weekend",
			time: time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsBusinessTime(tt.time); got != tt.want {
				t.Errorf("IsBusinessTime(%v) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

func TestIsBusinessTimeOnHoliday(t *testing.T) {
	c := weekdayCalendar()
	c.Holidays = []models.Holiday{
		{Name: "Christmas", Date: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), IsRecurring: true},
		{Name: "Company day", Date: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
	}
	s := mustSchedule(t, c)

	// Thursday Dec 25, 2025 would otherwise be a working day.
	if s.IsBusinessTime(time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)) {
		t.Error("recurring holiday should not be business time")
	}
	// Recurring: the same date next year is also excluded (Fri Dec 25, 2026).
	if s.IsBusinessTime(time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC)) {
		t.Error("recurring holiday should repeat the following year")
	}
	// One-time: Wed Jan 8, 2025 excluded, Jan 8, 2026 (Thursday) is not.
	if s.IsBusinessTime(time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)) {
		t.Error("one-time holiday should not be business time")
	}
	if !s.IsBusinessTime(time.Date(2026, 1, 8, 10, 0, 0, 0, time.UTC)) {
		t.Error("one-time holiday should not repeat the following year")
	}
}

func TestNextBusinessPeriodStart(t *testing.T) {
	c := weekdayCalendar()
	c.Holidays = []models.Holiday{
		{Name: "Company day", Date: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
	}
	s := mustSchedule(t, c)

	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{
			name:  "before window opens same day",
			start: time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC), // Monday 07:30
			want:  time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "mid-window moves to next day",
			start: time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), // Monday 10:00
			want:  time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "Friday evening skips weekend and Monday holiday",
			start: time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), // Friday 18:00
			want:  time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC),  // Tuesday
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.NextBusinessPeriodStart(tt.start)
			if err != nil {
				t.Fatalf("NextBusinessPeriodStart() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextBusinessPeriodStart(%v) = %v, want %v", tt.start, got, tt.want)
			}
		})
	}
}

func TestAddBusinessMinutes(t *testing.T) {
	s := mustSchedule(t, weekdayCalendar())

	tests := []struct {
		name    string
		start   time.Time
		minutes int
		want    time.Time
	}{
		{
			name:    "within one day",
			start:   time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), // Monday 10:00
			minutes: 60,
			want:    time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC),
		},
		{
			name:    "crosses end of day",
			start:   time.Date(2025, 1, 6, 16, 0, 0, 0, time.UTC), // Monday 16:00
			minutes: 120,
			want:    time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), // Tuesday 10:00
		},
		{
			name:    "weekend rollover",
			start:   time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC), // Saturday 10:00
			minutes: 120,
			want:    time.Date(2025, 1, 13, 11, 0, 0, 0, time.UTC), // Monday 11:00
		},
		{
			name:    "after-hours rollover",
			start:   time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), // Friday 18:00
			minutes: 120,
			want:    time.Date(2025, 1, 13, 11, 0, 0, 0, time.UTC), // Monday 11:00
		},
		{
			name:    "start exactly at window end counts as outside",
			start:   time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC), // Monday 17:00
			minutes: 60,
			want:    time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), // Tuesday 10:00
		},
		{
			name:    "zero minutes during business hours",
			start:   time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
			minutes: 0,
			want:    time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "zero minutes outside business hours",
			start:   time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC), // Saturday
			minutes: 0,
			want:    time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC), // Monday 09:00
		},
		{
			name:    "spans multiple days",
			start:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),  // Monday 09:00
			minutes: 3 * 8 * 60,                                   // three full 8-hour days
			want:    time.Date(2025, 1, 8, 17, 0, 0, 0, time.UTC), // Wednesday close of business
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AddBusinessMinutes(tt.start, tt.minutes)
			if err != nil {
				t.Fatalf("AddBusinessMinutes() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("AddBusinessMinutes(%v, %d) = %v, want %v", tt.start, tt.minutes, got, tt.want)
			}
		})
	}
}

func TestAddBusinessMinutesMonotonic(t *testing.T) {
	s := mustSchedule(t, weekdayCalendar())
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	prev, err := s.AddBusinessMinutes(start, 0)
	if err != nil {
		t.Fatalf("AddBusinessMinutes() error = %v", err)
	}
	for minutes := 30; minutes <= 2400; minutes += 30 {
		got, err := s.AddBusinessMinutes(start, minutes)
		if err != nil {
			t.Fatalf("AddBusinessMinutes(%d) error = %v", minutes, err)
		}
		if got.Before(prev) {
			t.Fatalf("AddBusinessMinutes(%d) = %v, earlier than result for fewer minutes %v", minutes, got, prev)
		}
		prev = got
	}
}

func TestNewScheduleRejectsInvalidWindow(t *testing.T) {
	c := weekdayCalendar()
	c.WorkingHours[0].StartTime = "17:00"
	c.WorkingHours[0].EndTime = "09:00"

	if _, err := NewSchedule(c); !errors.Is(err, ErrInvalidCalendar) {
		t.Errorf("NewSchedule() error = %v, want ErrInvalidCalendar", err)
	}
}

func TestNewScheduleRejectsAllDisabled(t *testing.T) {
	c := models.BusinessCalendar{Name: "closed"}
	for day := 0; day < 7; day++ {
		c.WorkingHours = append(c.WorkingHours, models.WorkingHours{DayOfWeek: day})
	}

	if _, err := NewSchedule(c); !errors.Is(err, ErrInvalidCalendar) {
		t.Errorf("NewSchedule() error = %v, want ErrInvalidCalendar", err)
	}
}

func TestNewScheduleFallsBackOnBadTimeFormat(t *testing.T) {
	c := weekdayCalendar()
	c.WorkingHours[0].StartTime = "9am" // Monday, malformed
	c.WorkingHours[0].EndTime = "late"

	s := mustSchedule(t, c)

	// Default window 09:00-17:00 applies to the malformed day.
	if !s.IsBusinessTime(time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)) {
		t.Error("Monday 10:00 should fall in the default fallback window")
	}
	if s.IsBusinessTime(time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)) {
		t.Error("Monday 08:00 should be outside the default fallback window")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
