package req

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/acrsample"
)

// A Parser decodes request payloads into structs and validates them.
//
// A Parser is safe for concurrent use.
type Parser struct {
	dec *schema.Decoder
	validator
}

// NewParser constructs a *Parser.
func NewParser() *Parser {
	return &Parser{
		dec:       newValuesDecoder(),
		validator: newValidator(),
	}
}

// ParseForm decodes into a pointer to a struct the form data in the body of r.
// Query params are ignored.
//
// Validation applies as it does with ParseQueryParams.
func (p *Parser) ParseForm(r *http.Request, structPtr any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("req: %w: failed reading form: %s", acrsample.ErrBadFormat, err)
	}

	return p.ParseQueryParams(r.PostForm, structPtr)
}

// ParseQueryParams decodes into a pointer to a struct the data in params.
// If successful, ParseQueryParams runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
//
// structPtr holds whatever decoded even when validation fails.
func (p *Parser) ParseQueryParams(params url.Values, structPtr any) error {
	if err := p.decode(structPtr, params); err != nil {
		return fmt.Errorf("req: failed decoding request params: %w", err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("req: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// decode fills structPtr from params.
func (p *Parser) decode(structPtr any, params url.Values) error {
	v := reflect.ValueOf(structPtr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a pointer to a struct", acrsample.ErrBadAny, structPtr)
	}

	if err := p.dec.Decode(structPtr, params); err != nil {
		return translateDecoderError(err)
	}

	return nil
}
