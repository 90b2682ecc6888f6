// Package validation wraps a shared go-playground/validator instance and turns
// its field errors into the VALIDATION_ERROR shape returned to clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// messages overrides the generic text for specific field/tag pairs. Keys are
// "<json field>.<tag>".
var messages = map[string]string{
	"username.required":       "Username is required",
	"username.min":            "Username must be at least 3 characters",
	"email.required":          "Email is required",
	"email.email":             "Please enter a valid email",
	"password.required":       "Password is required",
	"password.min":            "Password must be at least 6 characters",
	"age.required":            "Age is required",
	"age.gte":                 "You must be at least 13 years old",
	"age.lte":                 "Please enter a valid age",
	"gender.required":         "Gender is required",
	"gender.oneof":            "Gender must be one of: male, female, other",
	"favoriteGenres.required": "Please select at least 3 favorite genres",
	"favoriteGenres.min":      "Please select at least 3 genres",
	"id.required":             "Movie id is required",
	"id.gt":                   "Movie id must be a positive number",
	"title.required":          "Movie title is required",
}

// Get returns the shared validator. Field names in errors are the json names.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and returns an *apperrors.AppError listing every
// violated constraint, or nil.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return apperrors.Internal(err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation(err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := translate(fe)
		if seen[msg] {
			continue
		}
		seen[msg] = true
		details = append(details, msg)
	}
	return apperrors.Validation(details...)
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	// dive errors report the element, e.g. favoriteGenres[1]
	if i := strings.IndexByte(field, '['); i > 0 {
		if msg, ok := messages[field[:i]+".element"]; ok {
			return msg
		}
		return fmt.Sprintf("%s must not contain empty values", field[:i])
	}
	if msg, ok := messages[field+"."+fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
