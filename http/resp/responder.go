package resp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sync"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/http/template"
	"github.com/xy-planning-network/acrsample/logger"
)

// Responder maintains reusable pieces for responding to HTTP requests.
// It exposes many common methods for writing structured data as an HTTP response.
// These are the forms of response Responder can execute:
//
//	Html
//	Json
//	Redirect
//	Text
//
// Most oftentimes, setting up a single instance of a Responder suffices for an application.
//
// When handling a specific HTTP request, calling code supplies additional data, structure,
// and so forth through Fn functions.
type Responder struct {
	logger logger.Logger

	// Initialized template parser
	parser template.Parser

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool

	// Error message to use for "contact us" style client-side error messages,
	// i.e., those set in a session.Flash
	contactErrMsg string

	// Root URL the responder is listening on, also used when in an error state
	rootUrl *url.URL

	templates struct {
		// Root template every Html call renders
		base string

		// Root template to render when an error occurs
		// and no other response can be formed
		err string
	}
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		pool: &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	return d
}

// CurrentUser retrieves the user set in the context.
//
// If the context.Context has no value for acrsample.CurrentUserKey, ErrNotFound returns.
func (doer Responder) CurrentUser(ctx context.Context) (any, error) {
	val := ctx.Value(acrsample.CurrentUserKey)
	if val == nil {
		return nil, fmt.Errorf("%w: no user found with %s", ErrNotFound, acrsample.CurrentUserKey)
	}

	return val, nil
}

// Err wraps http.Error(), logging the error causing the failure state.
//
// Use in exceptional circumstances when no Redirect or Html can occur.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	rr, nested := doer.do(w, r, append([]Fn{Err(err)}, opts...)...)
	if nested != nil {
		err = fmt.Errorf("%w: %s", err, nested)
	}

	var msg string
	if err != nil {
		msg = err.Error()
	}

	code := http.StatusInternalServerError
	if rr != nil && rr.code != 0 {
		code = rr.code
	}

	http.Error(w, msg, code)
}

// Html composes together HTML templates set in *Responder
// and configured by Tmpls and other such calls.
//
// Templates render with this data:
//
//	{
//		CurrentUser any
//		Data any
//		Flashes []session.Flash
//	}
func (doer *Responder) Html(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	if doer.parser == nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no parser configured", ErrBadConfig))
	}

	tmpls := rr.tmpls
	if doer.templates.base != "" {
		tmpls = append([]string{doer.templates.base}, tmpls...)
	}

	if len(tmpls) == 0 {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no templates to render", ErrMissingData))
	}

	tmpl, err := doer.parser.Parse(tmpls...)
	if err != nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("cannot parse: %w", err))
	}

	if rr.user == nil {
		_ = populateUser(*doer, rr)
	}

	rd := struct {
		CurrentUser any
		Data        any
		Flashes     []session.Flash
	}{CurrentUser: rr.user, Data: rr.data}

	s, err := doer.Session(r.Context())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return doer.handleHtmlError(w, r, fmt.Errorf("can't retrieve session: %w", err))
	}

	if err == nil {
		rd.Flashes = s.Flashes(w, r)
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := tmpl.ExecuteTemplate(b, path.Base(tmpls[0]), rd); err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if rr.code != 0 {
		w.WriteHeader(rr.code)
	}

	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

type jsonSchema struct {
	D any `json:"data,omitempty"`
	U any `json:"currentUser,omitempty"`
}

// Json responds with data in JSON format, collating it from the current user, Data() and setting appropriate headers.
//
// When standard 2xx codes are supplied, the JSON schema will look like this:
//
//	{
//		"currentUser": {},
//		"data": {}
//	}
//
// Otherwise, "currentUser" is elided.
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	payload := jsonSchema{D: rr.data}
	if rr.code >= http.StatusOK && rr.code <= http.StatusNoContent {
		_ = populateUser(*doer, rr)
		payload.U = rr.user
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(payload); err != nil {
		doer.Err(w, r, err)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(rr.code)
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// Redirect calls http.Redirect, given Url() set the redirect destination.
// If Url() is not passed in opts, then ToRoot() sets the redirect destination.
//
// The default response status code is 302.
//
// If Code() set the status code to something other than standard redirect 3xx statuses,
// Redirect overwrites the status code with an appropriate 3xx status code.
func (doer *Responder) Redirect(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	if rr.url == nil {
		if err := ToRoot()(*doer, rr); err != nil {
			return fmt.Errorf("%w: cannot redirect: %s", ErrMissingData, err)
		}
	}

	switch {
	case rr.code >= http.StatusMultipleChoices && rr.code <= http.StatusPermanentRedirect:
		// NOTE: code is already a 3xx, so do nothing
	case rr.code >= http.StatusBadRequest && rr.code < http.StatusInternalServerError:
		rr.code = http.StatusSeeOther
	case rr.code >= http.StatusInternalServerError:
		rr.code = http.StatusTemporaryRedirect
	default:
		rr.code = http.StatusFound
	}

	http.Redirect(w, r, rr.url.String(), rr.code)
	return nil
}

// Text responds with the value set by Data() as plain text,
// unless ContentType() says otherwise.
//
// Data() may be a string, []byte or fmt.Stringer.
// The default response status code is 200.
func (doer *Responder) Text(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	var body []byte
	switch t := rr.data.(type) {
	case nil:
	case string:
		body = []byte(t)
	case []byte:
		body = t
	case fmt.Stringer:
		body = []byte(t.String())
	default:
		return fmt.Errorf("%w: cannot write %T as text", ErrInvalid, rr.data)
	}

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	if rr.ctype == "" {
		rr.ctype = "text/plain; charset=utf-8"
	}

	w.Header().Set("Content-Type", rr.ctype)
	w.WriteHeader(rr.code)
	if _, err := w.Write(body); err != nil {
		return err
	}

	return nil
}

// Session retrieves the session set in the context as a session.Session.
//
// If the context.Context has no value for acrsample.SessionKey, ErrNotFound returns.
func (doer Responder) Session(ctx context.Context) (session.Session, error) {
	val := ctx.Value(acrsample.SessionKey)
	if val == nil {
		return session.Session{}, fmt.Errorf("%w: no session found with %s", ErrNotFound, acrsample.SessionKey)
	}

	s, ok := val.(session.Session)
	if !ok {
		return session.Session{}, fmt.Errorf("%w: is not session.Session, is %T", ErrInvalid, val)
	}

	return s, nil
}

// do applies all options to the passed in http.ResponseWriter and *http.Request.
//
// Calling code ought to pass Options in the correct order.
// An option requiring something set by another one should come after.
// do nonetheless retries calling failed functional options until all succeed or
// a set of options unable to succeed is reached.
//
// Should all options apply successfully, do returns a validly formed *Response.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	resp := &Response{
		w:     w,
		r:     r,
		tmpls: make([]string, 0),
	}

	redos := make([]Fn, 0)
	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			if err := opt(*doer, resp); err != nil {
				redos = append(redos, opt)
			}
		}
	}

	// NOTE: stop once a pass fails to shrink redos,
	// since those options will not succeed.
	for len(redos) > 0 {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
		}

		before := len(redos)
		redos = doer.redo(resp, redos...)
		if len(redos) == before {
			break
		}
	}

	var err error
	for _, opt := range redos {
		nested := opt(*doer, resp)
		if err == nil {
			err = nested
			continue
		}

		err = fmt.Errorf("%w: %s", err, nested)
	}

	return resp, err
}

// handleHtmlError specially renders the error template set on the Responder
// and reports errors.
func (doer *Responder) handleHtmlError(w http.ResponseWriter, r *http.Request, err error) error {
	doer.logger.Error(err.Error(), &logger.LogContext{Request: r, Error: err})

	if doer.templates.err == "" || doer.parser == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("%w: no error template provided, encountered while handling: %s", ErrBadConfig, err)
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	tmpl, nested := doer.parser.Parse(doer.templates.err)
	if nested == nil {
		nested = tmpl.Execute(b, map[string]any{"Contact": doer.contactErrMsg, "Error": err})
	}

	if nested != nil {
		err = fmt.Errorf("%w: %s", nested, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if _, nested = b.WriteTo(w); nested != nil {
		return fmt.Errorf("%w: %s", nested, err)
	}

	return err
}

// redo applies as many Options as it can, returning those Options that continue to throw an error.
func (doer *Responder) redo(r *Response, opts ...Fn) []Fn {
	bad := make([]Fn, 0)
	for _, opt := range opts {
		if err := opt(*doer, r); err != nil {
			bad = append(bad, opt)
		}
	}

	return bad
}
