package app

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hotel_booking/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// a zero Date counts as absent for "required"
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(domain.Date); ok && !d.IsZero() {
			return d.String()
		}
		return nil
	}, domain.Date{})
	return v
}

// failedTags collects the validator tags that failed, e.g. "required".
func failedTags(err error) (map[string]bool, error) {
	tags := map[string]bool{}
	if err == nil {
		return tags, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		tags[fe.Tag()] = true
	}
	return tags, nil
}

func normalizeInput(in domain.BookingInput) domain.BookingInput {
	in.HotelID = strings.TrimSpace(in.HotelID)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestEmail = strings.TrimSpace(in.GuestEmail)
	return in
}

// validateInput applies the checks in a fixed order so the first failure
// decides the reported reason.
func validateInput(in domain.BookingInput) error {
	tags, err := failedTags(validate.Struct(in))
	if err != nil {
		return err
	}
	if tags["required"] {
		return domain.NewValidationError(domain.ReasonMissingFields)
	}
	if !in.CheckOut.After(in.CheckIn) {
		return domain.NewValidationError(domain.ReasonDateRange)
	}
	if tags["email"] {
		return domain.NewValidationError(domain.ReasonEmail)
	}
	return nil
}

func validateRange(checkIn, checkOut domain.Date) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return domain.NewValidationError(domain.ReasonMissingFields)
	}
	if !checkOut.After(checkIn) {
		return domain.NewValidationError(domain.ReasonDateRange)
	}
	return nil
}
