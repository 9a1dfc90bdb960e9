package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when a booking does not exist for the user.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidOintmentType is returned when the medicine or visit reason is blank.
	ErrInvalidOintmentType = errors.New("ointment type is required")

	// ErrInvalidDate is returned when the appointment date is missing or unparseable.
	ErrInvalidDate = errors.New("appointment date must be YYYY-MM-DD or RFC 3339")

	// ErrInvalidTime is returned when the appointment time is blank.
	ErrInvalidTime = errors.New("appointment time is required")

	// ErrInvalidBookingType is returned for anything but medicine or appointment.
	ErrInvalidBookingType = errors.New("booking type must be medicine or appointment")

	// ErrInvalidCategory is returned for a category outside the known list.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidStatus is returned for an unknown status.
	ErrInvalidStatus = errors.New("invalid status")
)

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidOintmentType,
		ErrInvalidDate,
		ErrInvalidTime,
		ErrInvalidBookingType,
		ErrInvalidCategory,
		ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
