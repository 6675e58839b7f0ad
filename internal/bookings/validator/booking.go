package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"roombook/pkg/logger"
	"roombook/pkg/model"
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
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

type BookingValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

func (bv *BookingValidator) ValidateBooking(booking *model.Booking) error {
	if err := bv.validate.Struct(booking); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			bv.log.Error("Invalid validation input", "error", err)
			return fmt.Errorf("internal validation error: %w", err)
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := make(ValidationErrors, 0, len(verrs))
			for _, fe := range verrs {
				out = append(out, ValidationError{
					Field:   fe.Field(),
					Message: translate(fe),
				})
			}
			return out
		}
		return err
	}

	if !booking.StartDate.Before(booking.EndDate) {
		return ValidationErrors{{
			Field:   "StartDate",
			Message: "must be before EndDate",
		}}
	}
	return nil
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation on '%s'", fe.Tag())
	}
}
