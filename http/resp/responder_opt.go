package resp

import (
	"net/url"

	"github.com/xy-planning-network/acrsample/http/template"
	"github.com/xy-planning-network/acrsample/logger"
)

// A ResponderOptFn mutates the provided *Responder in some way.
// A ResponderOptFn is used when constructing a new Responder.
type ResponderOptFn func(*Responder)

// WithBaseTemplate sets the template identified by the filepath
// every call to Html renders first.
func WithBaseTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.base = fp
	}
}

// WithContactErrMsg sets the error message to use for error Flashes.
//
// We recommend using session.ContactUsErr as a template.
func WithContactErrMsg(msg string) ResponderOptFn {
	return func(d *Responder) {
		d.contactErrMsg = msg
	}
}

// WithErrTemplate sets the template identified by the filepath to use for rendering
// when an unexpected error occurs while rendering HTML.
func WithErrTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.err = fp
	}
}

// WithLogger sets the provided implementation of logger.Logger
// in order to log all statements through it.
//
// If no logger.Logger is provided through this option,
// a default one is constructed.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}

// WithParser sets the provided template.Parser to render HTML templates.
func WithParser(p template.Parser) ResponderOptFn {
	return func(d *Responder) {
		d.parser = p
	}
}

// WithRootUrl sets the provided URL after parsing it into a *url.URL
// as the default endpoint for redirects.
//
// If the provided URL cannot be parsed, WithRootUrl leaves the root URL unset.
func WithRootUrl(u string) ResponderOptFn {
	return func(d *Responder) {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return
		}

		d.rootUrl = parsed
	}
}
