package errors

import "errors"

var (
	ErrNotFound = errors.New("product not found")

	ErrInvalidID = errors.New("invalid product ID format")

	ErrPricingNotFound = errors.New("no active pricing for the duration type")
)
