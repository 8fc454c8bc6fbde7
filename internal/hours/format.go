package hours

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("hours: malformed time")

// FormatError reports text that is not a 12-hour "H:MM AM" time or an
// opening-hours range.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("hours: malformed time %q", e.Input)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

var twelveHourPattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// Parse12Hour converts "H:MM AM" or "H:MM PM" (case-insensitive) into a
// 24-hour Clock. 12 AM is hour 0 and 12 PM stays hour 12. Text that fits the
// pattern but names an hour outside 1..12 or a minute above 59, such as
// "13:00 PM" or "0:15 AM", is rejected with the same *FormatError.
func Parse12Hour(text string) (Clock, error) {
	match := twelveHourPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return Clock{}, &FormatError{Input: text}
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return Clock{}, &FormatError{Input: text}
	}

	pm := strings.EqualFold(match[3], "PM")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// Format12Hour renders a 24-hour time as "H:MM AM|PM" with no leading zero on
// the hour.
func Format12Hour(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

// ParseDaySchedule reads the FormatOpeningHours representation back:
// "Closed" or "9:00 AM - 9:30 PM".
func ParseDaySchedule(text string) (DaySchedule, error) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "closed") {
		return DaySchedule{Closed: true}, nil
	}
	openText, closeText, ok := strings.Cut(trimmed, "-")
	if !ok {
		return DaySchedule{}, &FormatError{Input: text}
	}
	open, err := Parse12Hour(openText)
	if err != nil {
		return DaySchedule{}, err
	}
	closing, err := Parse12Hour(closeText)
	if err != nil {
		return DaySchedule{}, err
	}
	day := DaySchedule{Open: open, Close: closing}
	if err := day.validate(); err != nil {
		return DaySchedule{}, fmt.Errorf("%w: %q: %v", ErrInvalidWeek, text, err)
	}
	return day, nil
}
