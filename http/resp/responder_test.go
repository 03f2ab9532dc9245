package resp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/http/template"
	"github.com/xy-planning-network/acrsample/logger"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

type stringer string

func (s stringer) String() string { return string(s) }

func newTestResponder(opts ...resp.ResponderOptFn) (*resp.Responder, *bytes.Buffer) {
	b := new(bytes.Buffer)
	l := logger.New(logger.WithLogger(log.New(b, "", 0)), logger.WithEnv(acrsample.Testing.String()))
	return resp.NewResponder(append([]resp.ResponderOptFn{resp.WithLogger(l)}, opts...)...), b
}

func TestText(t *testing.T) {
	for _, tc := range []struct {
		name string
		data any
		code int
		body string
	}{
		{"String", "hello", http.StatusOK, "hello"},
		{"Bytes", []byte("hello"), http.StatusOK, "hello"},
		{"Stringer", stringer("hello"), http.StatusOK, "hello"},
		{"Nil", nil, http.StatusOK, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d, _ := newTestResponder()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			// Act
			err := d.Text(w, r, resp.Data(tc.data))

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			require.Equal(t, tc.body, w.Body.String())
		})
	}

	// Arrange
	d, _ := newTestResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	// Act
	err := d.Text(w, r, resp.Data(struct{}{}))

	// Assert
	require.ErrorIs(t, err, resp.ErrInvalid)

	// Arrange
	w = httptest.NewRecorder()

	// Act
	err = d.Text(w, r, resp.Data("created"), resp.Code(http.StatusCreated))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusCreated, w.Code)

	// Arrange
	w = httptest.NewRecorder()

	// Act
	err = d.Text(w, r, resp.ContentType("text/html; charset=utf-8"), resp.Data("<p>hi</p>"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, "<p>hi</p>", w.Body.String())
}

func TestRedirect(t *testing.T) {
	for _, tc := range []struct {
		name     string
		opts     []resp.Fn
		code     int
		location string
	}{
		{"Default-To-Root", nil, http.StatusFound, "http://localhost:8000/"},
		{"Url", []resp.Fn{resp.Url("/admin/")}, http.StatusFound, "/admin/"},
		{"Param-Before-Url", []resp.Fn{resp.Param("next", "/admin/"), resp.Url("/admin/login/")}, http.StatusFound, "/admin/login/?next=%2Fadmin%2F"},
		{"Keep-3xx", []resp.Fn{resp.Code(http.StatusSeeOther)}, http.StatusSeeOther, "http://localhost:8000/"},
		{"4xx", []resp.Fn{resp.Code(http.StatusNotFound)}, http.StatusSeeOther, "http://localhost:8000/"},
		{"5xx", []resp.Fn{resp.Code(http.StatusInternalServerError)}, http.StatusTemporaryRedirect, "http://localhost:8000/"},
		{"2xx", []resp.Fn{resp.Code(http.StatusOK)}, http.StatusFound, "http://localhost:8000/"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d, _ := newTestResponder(resp.WithRootUrl("http://localhost:8000/"))
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			// Act
			err := d.Redirect(w, r, tc.opts...)

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, tc.location, w.Header().Get("Location"))
		})
	}
}

func TestRedirectNoRoot(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	// Act
	err := d.Redirect(w, r)

	// Assert
	require.ErrorIs(t, err, resp.ErrMissingData)
}

func TestJson(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	w := httptest.NewRecorder()
	user := acrsample.User{Username: "admin"}
	ctx := context.WithValue(context.Background(), acrsample.CurrentUserKey, user)
	r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	// Act
	err := d.Json(w, r, resp.Data(map[string]int{"users": 1}))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusOK, w.Code)

	var actual struct {
		CurrentUser acrsample.User `json:"currentUser"`
		Data        map[string]int `json:"data"`
	}
	require.Nil(t, json.NewDecoder(w.Body).Decode(&actual))
	require.Equal(t, "admin", actual.CurrentUser.Username)
	require.Equal(t, 1, actual.Data["users"])

	// Arrange
	w = httptest.NewRecorder()

	// Act
	err = d.Json(w, r, resp.Code(http.StatusBadRequest))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotContains(t, w.Body.String(), "currentUser")
}

func TestGenericErr(t *testing.T) {
	// Arrange
	svc, err := session.NewStoreService(session.Config{Env: acrsample.Testing, SessionName: "acrsample-test", AuthKey: testKey})
	require.Nil(t, err)
	r := httptest.NewRequest(http.MethodGet, "/admin/user/", nil)
	s, err := svc.GetSession(r)
	require.Nil(t, err)
	r = r.WithContext(context.WithValue(r.Context(), acrsample.SessionKey, s))
	d, b := newTestResponder(resp.WithContactErrMsg("call us"))
	w := httptest.NewRecorder()

	// Act
	err = d.Redirect(w, r, resp.GenericErr(errors.New("db down")), resp.Url("/admin/"), resp.Code(http.StatusFound))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin/", w.Header().Get("Location"))
	require.Contains(t, b.String(), "db down")
	require.Equal(t, []session.Flash{{Class: session.FlashError, Msg: "call us"}}, s.Flashes(httptest.NewRecorder(), r))
}

func TestGenericErrNoSession(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin/user/", nil)

	// Act
	err := d.Redirect(w, r, resp.GenericErr(errors.New("db down")), resp.Url("/admin/"))

	// Assert
	require.ErrorIs(t, err, resp.ErrNotFound)
}

func TestWarn(t *testing.T) {
	// Arrange
	d, b := newTestResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/admin/logout/", nil)

	// Act
	err := d.Text(w, r, resp.Warn(errors.New("bad token")), resp.Code(http.StatusForbidden), resp.Data("no"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, b.String(), "WARN")
	require.Contains(t, b.String(), "bad token")
}

func TestHtml(t *testing.T) {
	// Arrange
	dir := fstest.MapFS{
		"base.tmpl":    {Data: []byte(`<main>{{ template "content" . }}</main>`)},
		"content.tmpl": {Data: []byte(`{{ define "content" }}{{ .Data }}{{ with .CurrentUser }}|{{ .Username }}{{ end }}{{ end }}`)},
	}
	p := template.NewParser([]fs.FS{dir})
	d, _ := newTestResponder(resp.WithParser(p), resp.WithBaseTemplate("base.tmpl"))
	w := httptest.NewRecorder()
	ctx := context.WithValue(context.Background(), acrsample.CurrentUserKey, acrsample.User{Username: "admin"})
	r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	// Act
	err := d.Html(w, r, resp.Tmpls("content.tmpl"), resp.Data("hello"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, "<main>hello|admin</main>", w.Body.String())
}

func TestHtmlError(t *testing.T) {
	// Arrange
	dir := fstest.MapFS{
		"error.tmpl": {Data: []byte(`oops: {{ .Contact }}`)},
	}
	p := template.NewParser([]fs.FS{dir})
	d, b := newTestResponder(resp.WithParser(p), resp.WithErrTemplate("error.tmpl"), resp.WithContactErrMsg("call us"))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	// Act
	err := d.Html(w, r, resp.Tmpls("missing.tmpl"))

	// Assert
	require.NotNil(t, err)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "oops: call us", w.Body.String())
	require.Contains(t, b.String(), "[ERROR]")
}

func TestErr(t *testing.T) {
	// Arrange
	d, b := newTestResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	boom := errors.New("boom")

	// Act
	d.Err(w, r, boom)

	// Assert
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "boom")
	require.Contains(t, b.String(), "boom")

	// Arrange
	w = httptest.NewRecorder()

	// Act
	d.Err(w, r, boom, resp.Code(http.StatusBadRequest))

	// Assert
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSession(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()

	// Act
	_, err := d.Session(context.Background())

	// Assert
	require.ErrorIs(t, err, resp.ErrNotFound)

	// Act
	_, err = d.Session(context.WithValue(context.Background(), acrsample.SessionKey, "nope"))

	// Assert
	require.ErrorIs(t, err, resp.ErrInvalid)
}
