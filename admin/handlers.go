package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/logger"
)

// page is the data every Site template expects.
type page struct {
	CSRF   string
	Header string
	Title  string
}

// loginForm is what the login form posts.
type loginForm struct {
	Username string `schema:"username" validate:"required"`
	Password string `schema:"password" validate:"required"`
	Next     string `schema:"next"`
}

// changelistQuery is the query a change list accepts; p counts from 1.
type changelistQuery struct {
	Page *int64 `schema:"p" validate:"omitempty,min=1"`
}

type loginData struct {
	page
	Error    string
	Next     string
	Username string
}

type modelSummary struct {
	Count   int64
	Counted bool
	Name    string
	URL     string
	Verbose string
}

type indexData struct {
	page
	Models []modelSummary
}

type changelistData struct {
	page
	Headers    []string
	Model      modelSummary
	Page       int64
	PrevPage   int64
	NextPage   int64
	Rows       [][]string
	Total      int64
	TotalPages int64
}

type loggedOutData struct {
	page
	LoginURL string
}

// newPage fills in the data shared by every page, including a CSRF token.
func (s *Site) newPage(w http.ResponseWriter, r *http.Request, title string) page {
	p := page{Header: s.header, Title: title}
	tok, err := s.csrfToken(w, r)
	if err != nil {
		s.logger.Warn(err.Error(), &logger.LogContext{Request: r, Error: err})
	}

	p.CSRF = tok
	return p
}

// index lists the registered models with their record counts.
//
// A model whose count fails is listed without one and the page carries an error flash.
func (s *Site) index(w http.ResponseWriter, r *http.Request) {
	var errs []error
	models := make([]modelSummary, 0, len(s.models))
	for _, m := range s.models {
		summary := modelSummary{Name: m.Name, URL: changelistPath(m.Name), Verbose: m.Verbose}
		count, err := m.Count(r.Context())
		if err != nil {
			errs = append(errs, fmt.Errorf("counting %s: %w", m.Name, err))
		} else {
			summary.Count, summary.Counted = count, true
		}

		models = append(models, summary)
	}

	opts := []resp.Fn{resp.Tmpls(tmplIndex)}
	if len(errs) > 0 {
		opts = append(opts, resp.GenericErr(errors.Join(errs...)))
	}

	data := indexData{page: s.newPage(w, r, "Site administration"), Models: models}
	s.responder.Html(w, r, append(opts, resp.Data(data))...)
}

// loginForm renders the login form,
// sending staff users already signed in on to where they were going.
func (s *Site) loginForm(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if u, ok := r.Context().Value(acrsample.CurrentUserKey).(acrsample.User); ok && u.CanAccessAdmin() {
		s.redirect(w, r, safeNext(next))
		return
	}

	s.renderLogin(w, r, http.StatusOK, loginData{Next: next})
}

// login authenticates a staff user and stores them in the session.
func (s *Site) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	formErr := s.parser.ParseForm(r, &form)
	if formErr != nil && !errors.Is(formErr, acrsample.ErrNotValid) {
		s.responder.Err(w, r, formErr, resp.Code(http.StatusBadRequest))
		return
	}

	if err := s.checkCSRF(r); err != nil {
		s.forbid(w, r, err)
		return
	}

	data := loginData{Next: form.Next, Username: form.Username}
	key := throttleKey(form.Username, middleware.RequestIP(r))

	n, err := s.throttle.Failures(r.Context(), key)
	if err != nil {
		s.logger.Warn("login throttle unavailable", &logger.LogContext{Request: r, Error: err})
	}

	if n >= s.maxFailures {
		s.renderLogin(w, r, http.StatusTooManyRequests, data, resp.Flash(session.Flash{Class: session.FlashError, Msg: session.ThrottledMsg}))
		return
	}

	var user acrsample.User
	err = formErr
	if err == nil {
		user, err = s.authenticate(r.Context(), form.Username, form.Password)
	}

	if errors.Is(err, acrsample.ErrNotValid) {
		if err := s.throttle.Fail(r.Context(), key); err != nil {
			s.logger.Warn("login throttle unavailable", &logger.LogContext{Request: r, Error: err})
		}

		data.Error = session.BadCredsMsg
		s.renderLogin(w, r, http.StatusOK, data)
		return
	}

	if err != nil {
		s.responder.Err(w, r, err)
		return
	}

	if err := s.throttle.Reset(r.Context(), key); err != nil {
		s.logger.Warn("login throttle unavailable", &logger.LogContext{Request: r, Error: err})
	}

	sess, err := s.responder.Session(r.Context())
	if err != nil {
		s.responder.Err(w, r, fmt.Errorf("%w: %s", ErrNoSession, err))
		return
	}

	// NOTE: a fresh session and CSRF token keep values planted before login from carrying over
	if err := sess.RenewUser(w, r, user.ID, csrfSessionKey); err != nil {
		s.responder.Err(w, r, err)
		return
	}

	if err := s.users.UpdateLastLogin(r.Context(), user.ID, s.now()); err != nil {
		s.logger.Warn("failed recording last login", &logger.LogContext{Request: r, Error: err, User: user})
	}

	s.logger.Info("admin login", &logger.LogContext{User: user})
	s.redirect(w, r, safeNext(data.Next))
}

// authenticate finds the active staff user matching username and password.
// Bad credentials of any kind return ErrNotValid.
func (s *Site) authenticate(ctx context.Context, username, password string) (acrsample.User, error) {
	if username == "" || password == "" {
		return acrsample.User{}, fmt.Errorf("%w: missing credentials", acrsample.ErrNotValid)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, acrsample.ErrNotFound) {
		s.dummyUser().CheckPassword(password)
		return acrsample.User{}, fmt.Errorf("%w: no user %q", acrsample.ErrNotValid, username)
	}

	if err != nil {
		return acrsample.User{}, err
	}

	if !user.CheckPassword(password) || !user.CanAccessAdmin() {
		return acrsample.User{}, fmt.Errorf("%w: bad credentials for %q", acrsample.ErrNotValid, username)
	}

	return user, nil
}

// logout ends the session and renders the logged out page.
func (s *Site) logout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.responder.Err(w, r, fmt.Errorf("%w: %s", acrsample.ErrNotValid, err), resp.Code(http.StatusBadRequest))
		return
	}

	if err := s.checkCSRF(r); err != nil {
		s.forbid(w, r, err)
		return
	}

	sess, err := s.responder.Session(r.Context())
	if err != nil {
		s.responder.Err(w, r, fmt.Errorf("%w: %s", ErrNoSession, err))
		return
	}

	if err := sess.DeregisterUser(w, r); err != nil {
		s.responder.Err(w, r, err)
		return
	}

	// NOTE: the page renders as though no one is signed in
	r = r.WithContext(context.WithValue(r.Context(), acrsample.CurrentUserKey, nil))
	data := loggedOutData{
		page:     s.newPage(w, r, "Logged out"),
		LoginURL: acrsample.AdminLoginPath,
	}

	s.responder.Html(
		w,
		r,
		resp.Flash(session.Flash{Class: session.FlashInfo, Msg: session.LoggedOutMsg}),
		resp.Tmpls(tmplLoggedOut),
		resp.Data(data),
	)
}

// changelist renders one page of a registered model's records.
func (s *Site) changelist(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model(mux.Vars(r)["model"])
	if !ok {
		s.notFound(w, r)
		return
	}

	var q changelistQuery
	if err := s.parser.ParseQueryParams(r.URL.Query(), &q); err != nil {
		s.notFound(w, r)
		return
	}

	p := int64(1)
	if q.Page != nil {
		p = *q.Page
	}

	items, total, err := m.List(r.Context(), p, s.perPage)
	if err != nil {
		err = s.responder.Redirect(
			w,
			r,
			resp.GenericErr(fmt.Errorf("listing %s: %w", m.Name, err)),
			resp.Url(acrsample.AdminHomePath),
			resp.Code(http.StatusFound),
		)
		if err != nil {
			s.responder.Err(w, r, err)
		}
		return
	}

	pages := (total + s.perPage - 1) / s.perPage
	if p > 1 && p > pages {
		s.notFound(w, r)
		return
	}

	data := changelistData{
		page:       s.newPage(w, r, "Select "+strings.ToLower(m.Verbose)+" to change"),
		Model:      modelSummary{Count: total, Counted: true, Name: m.Name, URL: changelistPath(m.Name), Verbose: m.Verbose},
		Page:       p,
		Total:      total,
		TotalPages: pages,
	}

	if p > 1 {
		data.PrevPage = p - 1
	}

	if p < pages {
		data.NextPage = p + 1
	}

	for _, c := range m.Columns {
		data.Headers = append(data.Headers, c.Header)
	}

	for _, item := range items {
		row := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			row[i] = c.Value(item)
		}

		data.Rows = append(data.Rows, row)
	}

	s.responder.Html(w, r, resp.Tmpls(tmplChangelist), resp.Data(data))
}

// notFound renders the Site's 404 page.
func (s *Site) notFound(w http.ResponseWriter, r *http.Request) {
	s.responder.Html(w, r, resp.Code(http.StatusNotFound), resp.Tmpls(tmplNotFound), resp.Data(s.newPage(w, r, "Page not found")))
}

// forbid refuses a request failing CSRF verification.
func (s *Site) forbid(w http.ResponseWriter, r *http.Request, err error) {
	err = s.responder.Text(w, r, resp.Warn(err), resp.Code(http.StatusForbidden), resp.Data("CSRF verification failed. Request aborted."))
	if err != nil {
		s.responder.Err(w, r, err)
	}
}

// redirect sends the client to path with a 302.
func (s *Site) redirect(w http.ResponseWriter, r *http.Request, path string) {
	if err := s.responder.Redirect(w, r, resp.Url(path), resp.Code(http.StatusFound)); err != nil {
		s.responder.Err(w, r, err)
	}
}

// renderLogin renders the login form with status code.
func (s *Site) renderLogin(w http.ResponseWriter, r *http.Request, code int, data loginData, opts ...resp.Fn) {
	data.page = s.newPage(w, r, "Log in")
	s.responder.Html(w, r, append(opts, resp.Code(code), resp.Tmpls(tmplLogin), resp.Data(data))...)
}

// changelistPath is where the change list for the model called name lives.
func changelistPath(name string) string { return acrsample.AdminHomePath + name + "/" }

// safeNext returns next when it is a path on this host, otherwise the admin index.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return acrsample.AdminHomePath
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return acrsample.AdminHomePath
	}

	return next
}
