// Package hours computes the club's opening hours and the appointment start
// times offered on a given calendar day.
//
// Everything here is a pure function of an injected weekly table (and any
// per-date exceptions) plus the date being asked about. The weekday of a date
// is read in the date's own location; callers that receive UTC timestamps must
// convert them to the club's time zone first.
package hours

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MinAppointmentDuration is the shortest bookable appointment, in minutes.
	MinAppointmentDuration = 30
	// MaxAppointmentDuration is the longest bookable appointment, in minutes.
	MaxAppointmentDuration = 480
	// TimeSlotInterval is the spacing between offered start times, in minutes.
	TimeSlotInterval = 30
)

var (
	// ErrClosedDay is returned when a start time falls on a closed day.
	ErrClosedDay = errors.New("hours: club is closed on that day")
	// ErrOutsideHours is returned when a start time is not one of the day's slots.
	ErrOutsideHours = errors.New("hours: start time is outside opening hours")
	// ErrInvalidWeek is returned when a weekly table has an inverted or out of range window.
	ErrInvalidWeek = errors.New("hours: invalid weekly schedule")
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// String renders the clock in the 12-hour wire format, e.g. "9:30 PM".
func (c Clock) String() string {
	return Format12Hour(c.Hour, c.Minute)
}

// DaySchedule is the opening window for one weekday. Open and Close are
// ignored when Closed is set.
type DaySchedule struct {
	Closed bool
	Open   Clock
	Close  Clock
}

// Week holds one DaySchedule per weekday, indexed by time.Weekday (Sunday first).
type Week [7]DaySchedule

// DefaultWeek returns the club's standard opening hours.
func DefaultWeek() Week {
	weekday := DaySchedule{Open: Clock{Hour: 9}, Close: Clock{Hour: 21, Minute: 30}}
	return Week{
		time.Sunday:    {Closed: true},
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {Open: Clock{Hour: 9}, Close: Clock{Hour: 17}},
	}
}

// Validate reports whether every open day has a well formed, non-inverted window.
func (w Week) Validate() error {
	for i, day := range w {
		if err := day.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidWeek, time.Weekday(i), err)
		}
	}
	return nil
}

func (d DaySchedule) validate() error {
	if d.Closed {
		return nil
	}
	if !d.Open.valid() || !d.Close.valid() {
		return errors.New("clock out of range")
	}
	if d.Close.minutes() < d.Open.minutes() {
		return errors.New("close precedes open")
	}
	return nil
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civil(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// Calendar answers opening-hours questions for concrete dates. A Calendar is
// immutable once built and safe for concurrent use.
type Calendar struct {
	week       Week
	exceptions map[civilDate]DaySchedule
}

// NewCalendar builds a calendar over the given weekly table.
func NewCalendar(week Week) *Calendar {
	return &Calendar{week: week}
}

// WithException returns a copy of the calendar in which the calendar day of
// date uses day instead of the weekly entry.
func (c *Calendar) WithException(date time.Time, day DaySchedule) *Calendar {
	next := &Calendar{week: c.week, exceptions: make(map[civilDate]DaySchedule, len(c.exceptions)+1)}
	for k, v := range c.exceptions {
		next.exceptions[k] = v
	}
	next.exceptions[civil(date)] = day
	return next
}

// Week returns the weekly table backing the calendar.
func (c *Calendar) Week() Week {
	return c.week
}

// ForDate returns the opening window for the calendar day of date.
func (c *Calendar) ForDate(date time.Time) DaySchedule {
	if day, ok := c.exceptions[civil(date)]; ok {
		return day
	}
	return c.week[date.Weekday()]
}

// IsOpen reports whether the club opens at all on the calendar day of date.
func (c *Calendar) IsOpen(date time.Time) bool {
	return !c.ForDate(date).Closed
}

// FormatOpeningHours renders the day's window as "9:00 AM - 9:30 PM", or
// "Closed".
func (c *Calendar) FormatOpeningHours(date time.Time) string {
	return c.ForDate(date).String()
}

// String renders the window in the same form as FormatOpeningHours.
func (d DaySchedule) String() string {
	if d.Closed {
		return "Closed"
	}
	return d.Open.String() + " - " + d.Close.String()
}

// TimeSlots lists every start time from open to close inclusive, spaced by
// TimeSlotInterval. A closed day, or a window that closes before it opens,
// yields an empty, non-nil slice.
func (c *Calendar) TimeSlots(date time.Time) []string {
	day := c.ForDate(date)
	if day.Closed {
		return []string{}
	}
	first, last := day.Open.minutes(), day.Close.minutes()
	if last < first {
		return []string{}
	}
	slots := make([]string, 0, (last-first)/TimeSlotInterval+1)
	for m := first; m <= last; m += TimeSlotInterval {
		slots = append(slots, Format12Hour(m/60, m%60))
	}
	return slots
}

// ValidateStart checks that t lands exactly on one of the slots offered for
// its calendar day.
func (c *Calendar) ValidateStart(t time.Time) error {
	day := c.ForDate(t)
	if day.Closed {
		return ErrClosedDay
	}
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return ErrOutsideHours
	}
	m := t.Hour()*60 + t.Minute()
	if m < day.Open.minutes() || m > day.Close.minutes() {
		return ErrOutsideHours
	}
	if (m-day.Open.minutes())%TimeSlotInterval != 0 {
		return ErrOutsideHours
	}
	return nil
}

// DayName returns the full English weekday name of date.
func DayName(date time.Time) string {
	return date.Weekday().String()
}
