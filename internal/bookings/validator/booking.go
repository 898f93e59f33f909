package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"renta/pkg/logger"
	"renta/pkg/model"
)

var (
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a creation request after any clock merge has already been
// applied to the slot bounds.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(&req.Booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !req.EndTime.After(req.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	if req.StartTime.Before(time.Now()) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	if errs := validateClocks(req.DurationType, req.StartClock, req.EndClock); errs != nil {
		return errs
	}

	return nil
}

// ValidateAvailability checks an availability query after any clock merge
// has been applied to the range bounds.
func (v *BookingValidator) ValidateAvailability(q *model.AvailabilityQuery) error {
	if err := v.validate.Struct(q); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !q.EndTime.After(q.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	if errs := validateClockFormats(q.StartClock, q.EndClock); errs != nil {
		return errs
	}

	return nil
}

func validateClocks(dt model.DurationType, startClock, endClock string) ValidationErrors {
	if startClock == "" && endClock == "" {
		return nil
	}

	if dt != model.DurationHourly {
		return ValidationErrors{
			ValidationError{
				Field:   "StartClock",
				Message: "clock times are only valid for hourly bookings",
			},
		}
	}

	return validateClockFormats(startClock, endClock)
}

func validateClockFormats(startClock, endClock string) ValidationErrors {
	var errs ValidationErrors
	if startClock != "" && !clockRegex.MatchString(startClock) {
		errs = append(errs, ValidationError{
			Field:   "StartClock",
			Message: "start_clock must be in HH:MM format",
		})
	}
	if endClock != "" && !clockRegex.MatchString(endClock) {
		errs = append(errs, ValidationError{
			Field:   "EndClock",
			Message: "end_clock must be in HH:MM format",
		})
	}
	return errs
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
