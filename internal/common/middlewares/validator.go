package middlewares

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator menghubungkan go-playground/validator ke echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return &ValidationError{err: err}
	}
	return nil
}

// ValidationError meringkas field yang gagal menjadi satu pesan.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	errs, ok := e.err.(validator.ValidationErrors)
	if !ok {
		return e.err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return "validasi gagal: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.err }
