package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()

	phoneCleaner       = regexp.MustCompile(`[^\d+]`)
	internationalPhone = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	domesticPhone      = regexp.MustCompile(`^[0-9]{10}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone accepts "+" followed by 7 to 15 digits, or exactly 10 domestic
// digits. Separators such as spaces and dashes are ignored.
func ValidPhone(phone string) bool {
	clean := phoneCleaner.ReplaceAllString(phone, "")
	if strings.HasPrefix(clean, "+") {
		return internationalPhone.MatchString(clean)
	}
	return domesticPhone.MatchString(clean)
}

// validateStruct runs the struct tags and folds the failures into one
// ErrInvalidInput
func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return invalidInput("%v", err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldMessage(fieldErr))
	}
	return invalidInput("%s", strings.Join(messages, "; "))
}

func fieldMessage(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fieldErr.Param() + " characters"
	case "max":
		return field + " must be at most " + fieldErr.Param() + " characters"
	case "email":
		return field + " must be a valid email address"
	case "eqfield":
		return "passwords do not match"
	case "phone":
		return field + " must be +<country><number> or 10 digits"
	case "oneof":
		return field + " must be one of " + fieldErr.Param()
	default:
		return field + " is invalid"
	}
}
