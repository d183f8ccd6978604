package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
)

// EchoValidator wraps go-playground/validator for Echo.
type EchoValidator struct {
	validator *validator.Validate
}

// NewEchoValidator creates a new Echo validator.
func NewEchoValidator() *EchoValidator {
	v := validator.New()
	// Report JSON field names, not Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &EchoValidator{validator: v}
}

// Validate implements echo.Validator, turning validator failures into
// a 400 with a per-field details map.
func (ev *EchoValidator) Validate(i interface{}) error {
	err := ev.validator.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.ValidationError("invalid request body", nil)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = messageForTag(fe)
	}
	return apperrors.ValidationError("validation failed", fields)
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed validation on " + fe.Tag()
	}
}
