package req

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/acrsample"
)

func newValuesDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return dec
}

// translateDecoderError converts an error returned by *schema.Decoder into standardized errors.
// Some *schema.Decoder errors are issues with calling code;
// some errors are unexpected issues;
// still some are issues with mismatches between a request's params and the expected shape.
func translateDecoderError(err error) error {
	var pkgErrs schema.MultiError
	// NOTE: outside the errors handled above, schema wraps everything in a MultiError.
	if !errors.As(err, &pkgErrs) {
		return fmt.Errorf("%w: %s", acrsample.ErrBadFormat, err)
	}

	var validErrs ValidationErrors
	for _, pkgErr := range pkgErrs {
		switch err := pkgErr.(type) {
		case schema.ConversionError:
			idx := err.Index
			if idx < 0 {
				// NOTE: non-slice values report -1
				idx = 0
			}

			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   fmt.Sprintf("bad value at index %d", idx),
				Rule:  "must be " + err.Type.String(),
			})

		case schema.EmptyFieldError:
			return fmt.Errorf(`%w: use validate pkg to set "required" fields, not schema`, acrsample.ErrNotImplemented)

		case schema.UnknownKeyError:
			// NOTE: unknown keys are ignored by default;
			// should that change, report them.
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   "value is set",
				Rule:  "unexpected key should not be set",
			})

		default:
			// NOTE: a field whose type lacks a schema.Converter
			// only errors once a value for it shows up.
			if strings.Contains(err.Error(), "schema: converter not found for") {
				return fmt.Errorf("%w: cannot convert values into unsupported type", acrsample.ErrNotImplemented)
			}

			return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
		}
	}

	// MultiError is a map; keep the order stable.
	sort.Slice(validErrs, func(i, j int) bool { return validErrs[i].Field < validErrs[j].Field })

	return validErrs
}
