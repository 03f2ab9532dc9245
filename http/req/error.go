package req

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xy-planning-network/acrsample"
)

// A ValidationError is an issue with a concrete value not matching the rule set on its field.
type ValidationError struct {
	Field string `json:"field"`
	Got   any    `json:"got"`
	Rule  string `json:"rule,omitempty"`
}

// ValidationErrors is a set of ValidationError.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msg := fmt.Sprintf("field=%q rule=%q got=%q", err.Field, err.Rule, fmt.Sprint(err.Got))
		msgs = append(msgs, msg)
	}

	return strings.Join(msgs, "\n")
}

func (v ValidationErrors) MarshalJSON() ([]byte, error) {
	var errs struct {
		E []ValidationError `json:"validationErrors,omitempty"`
	}

	errs.E = append(errs.E, v...)

	return json.Marshal(errs)
}

// Has asserts whether field failed validation.
func (v ValidationErrors) Has(field string) bool {
	for _, err := range v {
		if err.Field == field {
			return true
		}
	}

	return false
}

func (ValidationErrors) Unwrap() error { return acrsample.ErrNotValid }
