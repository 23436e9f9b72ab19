package sonar

import (
	"errors"
	"maps"
	"reflect"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateRequest validates a request that implements validation.Validatable
// and converts the first failure into a *ValidationError.
func ValidateRequest(request validation.Validatable) error {
	if request == nil || isNilPointer(request) {
		return NewValidationError("", "request is required")
	}

	return AsValidationError(request.Validate())
}

// AsValidationError converts ozzo validation errors into *ValidationError.
// Other errors are returned unchanged.
func AsValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for _, field := range slices.Sorted(maps.Keys(fieldErrs)) {
			if fieldErr := fieldErrs[field]; fieldErr != nil {
				return NewValidationError(field, fieldErr.Error())
			}
		}

		return nil
	}

	var ruleErr validation.Error
	if errors.As(err, &ruleErr) {
		return NewValidationError("", ruleErr.Error())
	}

	return err
}

func isNilPointer(value interface{}) bool {
	v := reflect.ValueOf(value)

	return v.Kind() == reflect.Ptr && v.IsNil()
}

// keyRules apply to mandatory keys such as project or component keys.
var keyRules = []validation.Rule{validation.Required, validation.Length(1, 400)}
