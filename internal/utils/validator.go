// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var objectIDPattern = regexp.MustCompile("^[0-9a-fA-F]{24}$")

func init() {
	validate = validator.New()
	validate.RegisterValidation("objectid", validateObjectID)
	validate.RegisterValidation("datauri", validateImageSource)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateObjectID accepts the 24 hex character form of a document id.
func validateObjectID(fl validator.FieldLevel) bool {
	return objectIDPattern.MatchString(fl.Field().String())
}

// validateImageSource accepts a base64 data URI or an http(s) URL.
func validateImageSource(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.HasPrefix(value, "data:") {
		return strings.Contains(value, ";base64,")
	}
	return strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://")
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   lowerFirst(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "objectid":
		return e.Field() + " must be a valid id"
	case "datauri":
		return e.Field() + " must be a base64 data URI or an http(s) URL"
	default:
		return e.Field() + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
