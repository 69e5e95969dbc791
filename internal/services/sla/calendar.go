package sla

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/deskhive/slacore/internal/models"
)

// Default window applied when a day's start or end time cannot be
// parsed. A typo in a HH:MM string is a configuration mistake, not a
// reason to miscount every deadline, so the day keeps working with the
// documented 09:00-17:00 window.
const (
	defaultStartMinutes = 9 * 60
	defaultEndMinutes   = 17 * 60
)

// maxDaySearch bounds the hunt for the next business window. A year
// without a single business day is a data-entry error, not an
// infinite-loop condition.
const maxDaySearch = 366

// ErrInvalidCalendar indicates a calendar that can never yield a
// business window: an enabled day whose start is not before its end,
// or no enabled non-holiday day within a full year.
var ErrInvalidCalendar = errors.New("invalid business calendar configuration")

// dayWindow is a compiled [start, end) window in minutes from midnight.
type dayWindow struct {
	enabled bool
	start   int
	end     int
}

// Schedule is the compiled, immutable form of a BusinessCalendar.
// Compile once per calendar and share freely; all methods are
// read-only and safe for concurrent use.
type Schedule struct {
	days     [7]dayWindow
	holidays *cal.Calendar
	loc      *time.Location
}

// NewSchedule validates and compiles a calendar. Malformed HH:MM
// strings fall back to the default window and are logged; an enabled
// day with start >= end, or a calendar with no enabled day at all, is
// rejected with ErrInvalidCalendar.
func NewSchedule(calendar models.BusinessCalendar) (*Schedule, error) {
	loc := time.UTC
	if calendar.TimeZone != "" {
		l, err := time.LoadLocation(calendar.TimeZone)
		if err != nil {
			log.Printf("calendar %s: unknown time zone %q, using UTC", calendar.Name, calendar.TimeZone)
		} else {
			loc = l
		}
	}

	s := &Schedule{holidays: &cal.Calendar{}, loc: loc}

	for _, wh := range calendar.WorkingHours {
		if wh.DayOfWeek < 0 || wh.DayOfWeek > 6 {
			log.Printf("calendar %s: ignoring entry with day_of_week %d", calendar.Name, wh.DayOfWeek)
			continue
		}
		if !wh.IsWorkingDay {
			s.days[wh.DayOfWeek] = dayWindow{}
			continue
		}

		start, err := parseClock(wh.StartTime)
		if err != nil {
			log.Printf("calendar %s: day %d: bad start time %q, using 09:00", calendar.Name, wh.DayOfWeek, wh.StartTime)
			start = defaultStartMinutes
		}
		end, err := parseClock(wh.EndTime)
		if err != nil {
			log.Printf("calendar %s: day %d: bad end time %q, using 17:00", calendar.Name, wh.DayOfWeek, wh.EndTime)
			end = defaultEndMinutes
		}
		if start >= end {
			return nil, fmt.Errorf("calendar %s: day %d: start %s is not before end %s: %w",
				calendar.Name, wh.DayOfWeek, wh.StartTime, wh.EndTime, ErrInvalidCalendar)
		}
		s.days[wh.DayOfWeek] = dayWindow{enabled: true, start: start, end: end}
	}

	enabled := false
	for _, w := range s.days {
		if w.enabled {
			enabled = true
			break
		}
	}
	if !enabled {
		return nil, fmt.Errorf("calendar %s: no working days enabled: %w", calendar.Name, ErrInvalidCalendar)
	}

	for _, h := range calendar.Holidays {
		holiday := &cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Date.Month(),
			Day:   h.Date.Day(),
			Func:  cal.CalcDayOfMonth,
		}
		if !h.IsRecurring {
			holiday.StartYear = h.Date.Year()
			holiday.EndYear = h.Date.Year()
		}
		s.holidays.AddHoliday(holiday)
	}

	return s, nil
}

// parseClock parses a HH:MM string into minutes from midnight.
func parseClock(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", v)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", v)
	}
	return h*60 + m, nil
}

// IsBusinessTime reports whether t counts toward SLA deadlines: its
// weekday is enabled, it falls within the [start, end) window, and the
// date is not a holiday.
func (s *Schedule) IsBusinessTime(t time.Time) bool {
	t = t.In(s.loc)
	w := s.days[t.Weekday()]
	if !w.enabled || s.isHoliday(t) {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= w.start && m < w.end
}

// EndOfBusinessDay returns the end of the business window on t's day.
// The result is only meaningful when t falls on an enabled day.
func (s *Schedule) EndOfBusinessDay(t time.Time) time.Time {
	t = t.In(s.loc)
	w := s.days[t.Weekday()]
	return s.midnight(t).Add(time.Duration(w.end) * time.Minute)
}

// NextBusinessPeriodStart returns the start of the first business
// window strictly after t, skipping disabled days and holidays. The
// search is capped at maxDaySearch days; running past the cap means
// the calendar can never produce a deadline.
func (s *Schedule) NextBusinessPeriodStart(t time.Time) (time.Time, error) {
	t = t.In(s.loc)
	for i := 0; i < maxDaySearch; i++ {
		day := t.AddDate(0, 0, i)
		w := s.days[day.Weekday()]
		if !w.enabled || s.isHoliday(day) {
			continue
		}
		start := s.midnight(day).Add(time.Duration(w.start) * time.Minute)
		if start.After(t) {
			return start, nil
		}
	}
	return time.Time{}, fmt.Errorf("no business window within %d days of %s: %w",
		maxDaySearch, t.Format("2006-01-02"), ErrInvalidCalendar)
}

// AddBusinessMinutes advances start by exactly minutes of business
// time, skipping non-business periods. Zero minutes returns start
// unchanged when it is already business time, otherwise the next
// business period start. The remaining minutes shrink every pass, so
// the loop terminates on any schedule NewSchedule accepted.
func (s *Schedule) AddBusinessMinutes(start time.Time, minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, fmt.Errorf("negative business minutes %d", minutes)
	}

	cur := start.In(s.loc)
	if !s.IsBusinessTime(cur) {
		next, err := s.NextBusinessPeriodStart(cur)
		if err != nil {
			return time.Time{}, err
		}
		cur = next
	}

	remaining := minutes
	for {
		available := int(s.EndOfBusinessDay(cur).Sub(cur).Minutes())
		if remaining <= available {
			return cur.Add(time.Duration(remaining) * time.Minute), nil
		}
		remaining -= available
		next, err := s.NextBusinessPeriodStart(cur)
		if err != nil {
			return time.Time{}, err
		}
		cur = next
	}
}

func (s *Schedule) isHoliday(t time.Time) bool {
	actual, observed, _ := s.holidays.IsHoliday(t)
	return actual || observed
}

func (s *Schedule) midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
