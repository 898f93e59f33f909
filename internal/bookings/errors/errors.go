package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrTimeConflict = errors.New("requested slot conflicts with an existing booking")

	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
