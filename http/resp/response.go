package resp

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/logger"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
type Response struct {
	w     http.ResponseWriter
	r     *http.Request
	code  int
	ctype string
	data  any
	tmpls []string
	url   *url.URL
	user  any
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		r.code = c
		return nil
	}
}

// ContentType overrides the Content-Type header.
//
// Used with Responder.Text.
func ContentType(ct string) Fn {
	return func(_ Responder, r *Response) error {
		r.ctype = ct
		return nil
	}
}

// Data stores the provided value for writing to the client.
//
// Used with Responder.Html, Responder.Json and Responder.Text.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Err sets the status code http.StatusInternalServerError and logs the error.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		if e != nil {
			d.logger.Error(e.Error(), newLogContext(r.r, e, r.data, r.user))
		}

		r.code = http.StatusInternalServerError
		return nil
	}
}

// Flash sets a flash message in the session with the passed in class and msg.
func Flash(flash session.Flash) Fn {
	return func(d Responder, r *Response) error {
		s, err := d.Session(r.r.Context())
		if err != nil {
			return err
		}

		return s.SetFlash(r.w, r.r, flash)
	}
}

// GenericErr combines Err() and Flash() to log the passed in error
// and set a generic error flash in the session
// using either the string set by WithContactErrMsg or session.DefaultErrMsg.
func GenericErr(e error) Fn {
	return func(d Responder, r *Response) error {
		if err := Err(e)(d, r); err != nil {
			return err
		}

		msg := session.DefaultErrMsg
		if d.contactErrMsg != "" {
			msg = d.contactErrMsg
		}

		return Flash(session.Flash{Class: session.FlashError, Msg: msg})(d, r)
	}
}

// Param adds the query parameter to the response's URL.
//
// Used with Responder.Redirect.
func Param(key, val string) Fn {
	return func(_ Responder, r *Response) error {
		if r.url == nil {
			return fmt.Errorf("%w: Url() has not been called", ErrMissingData)
		}

		q := r.url.Query()
		q.Add(key, val)
		r.url.RawQuery = q.Encode()
		return nil
	}
}

// Tmpls appends to the templates to be rendered.
//
// Used with Responder.Html.
func Tmpls(fps ...string) Fn {
	return func(_ Responder, r *Response) error {
		r.tmpls = append(r.tmpls, fps...)
		return nil
	}
}

// ToRoot calls Url with the Responder's default, root URL.
func ToRoot() Fn {
	return func(d Responder, r *Response) error {
		if d.rootUrl == nil {
			return fmt.Errorf("%w: no root url", ErrBadConfig)
		}

		u := *d.rootUrl
		r.url = &u
		return nil
	}
}

// Url parses raw and sets it as the response's URL.
//
// Used with Responder.Redirect.
func Url(raw string) Fn {
	return func(_ Responder, r *Response) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, err)
		}

		r.url = u
		return nil
	}
}

// Warn logs e as a warning without altering the response.
func Warn(e error) Fn {
	return func(d Responder, r *Response) error {
		if e != nil {
			d.logger.Warn(e.Error(), &logger.LogContext{Request: r.r, Error: e})
		}

		return nil
	}
}
