package req

import (
	"errors"
	"reflect"
	"strings"

	v10 "github.com/go-playground/validator/v10"
)

type validator struct {
	valid *v10.Validate
}

// newValidator constructs a validator, which applies default configuration.
//
// Fields are reported by their "json" name, falling back to their "schema" name.
func newValidator() validator {
	v := v10.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			name = ""
		}

		if name == "" {
			name = strings.SplitN(field.Tag.Get("schema"), ",", 2)[0]
		}

		if name == "-" {
			name = ""
		}

		return name
	})

	return validator{v}
}

// validate checks the fields on structPtr match the rules set by "validate" struct tags.
// On success, validate returns no error.
// On failure, validate translates each issue to a ValidationError,
// returning them all as ValidationErrors.
func (v validator) validate(structPtr any) error {
	err := v.valid.Struct(structPtr)
	if err == nil {
		return nil
	}

	var errs v10.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	var validateErrs ValidationErrors
	for _, ve := range errs {
		field := ve.Namespace()

		ns := strings.SplitN(field, ".", 2)
		if len(ns) == 2 {
			field = ns[1]
		}

		rule := ve.Tag()
		if ve.Param() != "" {
			rule += "=" + ve.Param()
		}
		rule += "; " + ve.Type().String()

		validateErrs = append(validateErrs, ValidationError{
			Field: field,
			Got:   ve.Value(),
			Rule:  rule,
		})
	}

	return validateErrs
}
