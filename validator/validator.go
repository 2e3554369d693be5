package validator

import (
	"sync"

	ierr "tuition_go/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator, creating it on first use.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateRequest validates struct tags and converts failures into a validation error
// carrying one detail per failed field.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FieldErrors lists the failing fields of a validation error, keyed by field name.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var validateErrs validator.ValidationErrors
	if ierr.As(err, &validateErrs) {
		for _, fe := range validateErrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
