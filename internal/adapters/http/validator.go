package http

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/pharmastock/core/internal/domain/entities"
)

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns an echo validator that understands entities.Date:
// `required` on a date fails for the zero date.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(entities.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, entities.Date{})
	return &CustomValidator{validator: v}
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
