package models

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterJSONFieldNames(v)
	return v
}

// RegisterJSONFieldNames makes validation errors report JSON field names so
// they line up with what clients sent. The HTTP router applies it to gin's
// validator engine too.
func RegisterJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}

// Validate checks the binding tags of a request struct.
func Validate(input any) error {
	if err := validate.Struct(input); err != nil {
		return ValidationError(err)
	}
	return nil
}

// ValidationError turns a validator or JSON decoding failure into an
// errs.Validation. Missing fields are listed in the message.
func ValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Wrap(errs.KindValidation, err, "invalid request body: %s", err.Error())
	}

	details := make(map[string]string, len(fieldErrs))
	var missing, invalid []string
	for _, fe := range fieldErrs {
		field := fe.Field()
		if fe.Tag() == "required" {
			details[field] = "required"
			missing = append(missing, field)
			continue
		}
		if fe.Param() != "" {
			details[field] = fe.Tag() + "=" + fe.Param()
		} else {
			details[field] = fe.Tag()
		}
		invalid = append(invalid, field)
	}
	sort.Strings(missing)
	sort.Strings(invalid)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}
	return errs.ValidationFields(strings.Join(parts, "; "), details)
}
