package hours

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration is returned for appointment lengths outside the bounds or
// off the slot grid.
var ErrInvalidDuration = errors.New("hours: invalid appointment duration")

// ValidateDuration checks MinAppointmentDuration <= minutes <= MaxAppointmentDuration
// in TimeSlotInterval steps.
func ValidateDuration(minutes int) error {
	if minutes < MinAppointmentDuration || minutes > MaxAppointmentDuration {
		return fmt.Errorf("%w: %d minutes is outside %d-%d", ErrInvalidDuration, minutes, MinAppointmentDuration, MaxAppointmentDuration)
	}
	if minutes%TimeSlotInterval != 0 {
		return fmt.Errorf("%w: %d minutes is not a multiple of %d", ErrInvalidDuration, minutes, TimeSlotInterval)
	}
	return nil
}

// DurationOptions lists every valid duration in ascending order.
func DurationOptions() []int {
	options := make([]int, 0, (MaxAppointmentDuration-MinAppointmentDuration)/TimeSlotInterval+1)
	for m := MinAppointmentDuration; m <= MaxAppointmentDuration; m += TimeSlotInterval {
		options = append(options, m)
	}
	return options
}
