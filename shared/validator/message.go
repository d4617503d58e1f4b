package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"max":         "{field} must be at most {param}",
	"min":         "{field} must be at least {param}",
	"oneof":       "{field} must be one of {param}",
	"email":       "{field} must be a valid email address",
	"datetime":    "{field} must be an RFC 3339 timestamp",
	"dateonly":    "{field} must be a date formatted as YYYY-MM-DD",
	"dailyslot":   "{field} must be one of the daily booking slots",
	"mimetypes":   "{field} must be one of {param}",
	"maxfilesize": "{field} must be at most {param} MB",
}

// message renders the first failed rule with the field's json name.
func message(err error) string {
	var fieldErrors val.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}

	first := fieldErrors[0]

	template, ok := messages[first.Tag()]
	if !ok {
		return first.Error()
	}

	return strings.NewReplacer("{field}", first.Field(), "{param}", first.Param()).Replace(template)
}
