package services

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var pinPattern = regexp.MustCompile(`^(\d{4}|\d{6})$`)

// ValidationHelper provides shared request validation
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validator that reports fields by their json name
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &ValidationHelper{validator: v}
}

// ValidateStruct returns a *ValidationError when s fails its tags
func (vh *ValidationHelper) ValidateStruct(s any) error {
	if err := vh.validator.Struct(s); err != nil {
		return newValidationError(err)
	}
	return nil
}

// ValidPIN reports whether pin is a 4 or 6 digit numeric PIN
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// NormalizeEmail lower-cases and trims an email for lookups and comparisons
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
