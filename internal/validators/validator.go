package validators

import (
	"fmt"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate reports the first failing field as a VALIDATION_ERROR.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Validation(fe.Field(), fmt.Sprintf("failed on '%s' validation", fe.Tag()))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
}
