package service

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all services. validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// bcrypt reads at most 72 bytes, so password limits count bytes, not runes.
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil || fl.Field().Kind() != reflect.String {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate checks v against its validate struct tags. Constraint failures
// are returned as a KindValidation *Error whose Fields map names each
// offending JSON field.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return unexpected("validate request", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "min":
		if isString {
			return fmt.Sprintf("size must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isString {
			return fmt.Sprintf("size must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "maxbytes":
		return fmt.Sprintf("size must be at most %s bytes", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	}
	return "is invalid"
}

// fieldError builds a validation error for a single field.
func fieldError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: map[string]string{field: msg}}
}
