package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"renta/pkg/logger"
	"renta/pkg/model"
)

var (
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	hundred    = decimal.NewFromInt(100)
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

type ProductValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProductValidator(log *logger.Logger) *ProductValidator {
	v := validator.New()

	log.Info("Product validator initialized successfully")

	return &ProductValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ProductValidator) Validate(product *model.Product) error {
	if err := v.validate.Struct(product); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if product.AvailableFrom != nil && product.AvailableUntil != nil {
		if !product.AvailableUntil.After(*product.AvailableFrom) {
			return ValidationErrors{
				ValidationError{
					Field:   "AvailableUntil",
					Message: "available_until must be after available_from",
				},
			}
		}
	}

	return nil
}

func (v *ProductValidator) ValidateUpdate(update *model.ProductUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.AvailableFrom != nil && update.AvailableUntil != nil {
		if !update.AvailableUntil.After(*update.AvailableFrom) {
			return ValidationErrors{
				ValidationError{
					Field:   "AvailableUntil",
					Message: "available_until must be after available_from",
				},
			}
		}
	}

	return nil
}

// ValidatePricing checks a rate row before it replaces the active row for
// its (product, duration type) pair.
func (v *ProductValidator) ValidatePricing(row *model.ProductPricing) error {
	if err := v.validate.Struct(row); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var errs ValidationErrors
	if row.BasePrice.IsNegative() {
		errs = append(errs, ValidationError{
			Field:   "BasePrice",
			Message: "base_price cannot be negative",
		})
	}
	if row.DiscountPercent.IsNegative() || row.DiscountPercent.GreaterThan(hundred) {
		errs = append(errs, ValidationError{
			Field:   "DiscountPercent",
			Message: "discount_percent must be between 0 and 100",
		})
	}
	if row.MinDuration > 0 && row.MaxDuration > 0 && row.MinDuration > row.MaxDuration {
		errs = append(errs, ValidationError{
			Field:   "MinDuration",
			Message: "min_duration cannot exceed max_duration",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuote checks a quote request, including hourly clock strings.
func (v *ProductValidator) ValidateQuote(req *model.QuoteRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if req.StartClock != "" || req.EndClock != "" {
		if req.DurationType != model.DurationHourly {
			return ValidationErrors{
				ValidationError{
					Field:   "StartClock",
					Message: "clock times are only valid for hourly quotes",
				},
			}
		}
		var errs ValidationErrors
		if req.StartClock != "" && !clockRegex.MatchString(req.StartClock) {
			errs = append(errs, ValidationError{
				Field:   "StartClock",
				Message: "start_clock must be in HH:MM format",
			})
		}
		if req.EndClock != "" && !clockRegex.MatchString(req.EndClock) {
			errs = append(errs, ValidationError{
				Field:   "EndClock",
				Message: "end_clock must be in HH:MM format",
			})
		}
		if len(errs) > 0 {
			return errs
		}
	}

	return nil
}

func (v *ProductValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
