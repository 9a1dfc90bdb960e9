package auth

import "errors"

var (
	// ErrInvalidName is returned when the display name is blank.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidEmail is returned when the email address is missing or malformed.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrWeakPassword is returned when the password is shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrEmailTaken is returned when registering an address that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound is returned when a user id does not exist.
	ErrUserNotFound = errors.New("user not found")
)
