package alerts

import "errors"

var (
	// ErrAlertNotFound is returned when an alert does not exist for the user.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidTitle is returned when an alert has no title.
	ErrInvalidTitle = errors.New("title is required")

	// ErrInvalidMessage is returned when an alert has no message.
	ErrInvalidMessage = errors.New("message is required")

	// ErrInvalidType is returned for an unknown alert type.
	ErrInvalidType = errors.New("invalid alert type")

	// ErrInvalidPriority is returned for an unknown priority.
	ErrInvalidPriority = errors.New("invalid alert priority")
)
