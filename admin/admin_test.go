package admin_test

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/admin"
	"github.com/xy-planning-network/acrsample/admin/mock"
	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/router"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/http/template"
	"github.com/xy-planning-network/acrsample/logger"
)

const (
	testKey      = "6368616e676520746869732070617373776f726420746f206120736563726574"
	testPassword = "correct horse"
)

var csrfRegexp = regexp.MustCompile(`name="csrfmiddlewaretoken" value="([0-9a-f]+)"`)

type harness struct {
	client *http.Client
	site   *admin.Site
	srv    *httptest.Server
	users  *mock.MockUserStore
}

func newTestUser(t *testing.T, id uint, username string, staff, active bool) acrsample.User {
	t.Helper()
	u, err := acrsample.NewUser(username, username+"@example.com", testPassword)
	require.Nil(t, err)
	u.ID = id
	u.IsStaff = staff
	u.IsActive = active
	return *u
}

func newHarness(t *testing.T, opts ...admin.SiteOpt) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := mock.NewMockUserStore(ctrl)
	known := []acrsample.User{
		newTestUser(t, 1, "admin", true, true),
		newTestUser(t, 2, "bob", false, true),
		newTestUser(t, 3, "carol", true, false),
	}

	users.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id uint) (acrsample.User, error) {
		for _, u := range known {
			if u.ID == id {
				return u, nil
			}
		}

		return acrsample.User{}, acrsample.ErrNotFound
	}).AnyTimes()

	users.EXPECT().FindByUsername(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, username string) (acrsample.User, error) {
		for _, u := range known {
			if u.Username == username {
				return u, nil
			}
		}

		return acrsample.User{}, fmt.Errorf("%w: %s", acrsample.ErrNotFound, username)
	}).AnyTimes()

	users.EXPECT().Count(gomock.Any()).Return(int64(len(known)), nil).AnyTimes()
	users.EXPECT().Page(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, page, perPage int64) ([]acrsample.User, int64, error) {
		start := (page - 1) * perPage
		if start >= int64(len(known)) {
			return nil, int64(len(known)), nil
		}

		end := start + perPage
		if end > int64(len(known)) {
			end = int64(len(known))
		}

		return known[start:end], int64(len(known)), nil
	}).AnyTimes()

	store, err := session.NewStoreService(session.Config{Env: acrsample.Testing, SessionName: "acrsample-test", AuthKey: testKey})
	require.Nil(t, err)

	quiet := logger.New(logger.WithLogger(log.New(io.Discard, "", 0)))
	p := template.NewParser([]fs.FS{admin.Templates()}, template.WithFn(template.Env(acrsample.Testing)))
	d := resp.NewResponder(
		resp.WithBaseTemplate(admin.BaseTemplate()),
		resp.WithErrTemplate(admin.ErrTemplate()),
		resp.WithLogger(quiet),
		resp.WithParser(p),
		resp.WithRootUrl("http://localhost/"),
	)

	r := router.New(acrsample.Testing, nil)
	r.OnEveryRequest(
		middleware.InjectIPAddress(nil),
		middleware.InjectSession(store),
		middleware.CurrentUser(d, quiet, admin.UserStorer(users)),
	)

	site, err := admin.NewSite(d, users, append([]admin.SiteOpt{admin.WithLogger(quiet)}, opts...)...)
	require.Nil(t, err)
	require.Nil(t, site.Mount(r, "/admin"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.Nil(t, err)

	return &harness{
		client: &http.Client{
			Jar:           jar,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		site:  site,
		srv:   srv,
		users: users,
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := h.client.Get(h.srv.URL + path)
	require.Nil(t, err)
	return res, readBody(t, res)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	return h.postWithHeader(t, path, form, nil)
}

func (h *harness) postWithHeader(t *testing.T, path string, form url.Values, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.Nil(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	res, err := h.client.Do(req)
	require.Nil(t, err)
	return res, readBody(t, res)
}

// adminCSRF returns the token the signed in admin index carries.
func (h *harness) adminCSRF(t *testing.T) string {
	t.Helper()
	_, body := h.get(t, "/admin/")
	m := csrfRegexp.FindStringSubmatch(body)
	require.Len(t, m, 2)
	return m[1]
}

// csrf loads the login form and returns its token.
func (h *harness) csrf(t *testing.T) string {
	t.Helper()
	_, body := h.get(t, "/admin/login/")
	m := csrfRegexp.FindStringSubmatch(body)
	require.Len(t, m, 2)
	return m[1]
}

func (h *harness) login(t *testing.T, username, password, next string) (*http.Response, string) {
	t.Helper()
	return h.post(t, "/admin/login/", url.Values{
		admin.CSRFField: {h.csrf(t)},
		"username":      {username},
		"password":      {password},
		"next":          {next},
	})
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	return string(b)
}

func TestIndexAnonymous(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	res, _ := h.get(t, "/admin/")

	// Assert
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "/admin/login/?next=%2Fadmin%2F", res.Header.Get("Location"))

	// Arrange
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/admin/", nil)
	require.Nil(t, err)
	req.Header.Set("Accept", "application/json")

	// Act
	res, err = h.client.Do(req)

	// Assert
	require.Nil(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestLoginForm(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	res, body := h.get(t, "/admin/login/?next=/admin/user/")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `id="login-form"`)
	require.Contains(t, body, `name="next" value="/admin/user/"`)
	require.Regexp(t, csrfRegexp, body)
}

func TestLoginSuccess(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)

	// Act
	res, _ := h.login(t, "admin", testPassword, "/admin/user/")

	// Assert
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "/admin/user/", res.Header.Get("Location"))

	// Act
	res, body := h.get(t, "/admin/")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Site administration")
	require.Contains(t, body, `<a href="/admin/user/">Users</a>`)
	require.Contains(t, body, `<td class="count">3</td>`)
	require.Contains(t, body, "Welcome, <strong>admin</strong>.")

	// Act
	res, _ = h.get(t, "/admin/login/")

	// Assert
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "/admin/", res.Header.Get("Location"))
}

func TestLoginUnsafeNext(t *testing.T) {
	for _, next := range []string{"", "https://evil.example.com/", "//evil.example.com/", "admin/"} {
		t.Run(next, func(t *testing.T) {
			// Arrange
			h := newHarness(t)
			h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)

			// Act
			res, _ := h.login(t, "admin", testPassword, next)

			// Assert
			require.Equal(t, http.StatusFound, res.StatusCode)
			require.Equal(t, "/admin/", res.Header.Get("Location"))
		})
	}
}

func TestLoginFailure(t *testing.T) {
	for _, tc := range []struct {
		name     string
		username string
		password string
	}{
		{"Wrong-Password", "admin", "wrong"},
		{"Unknown-User", "nobody", testPassword},
		{"Not-Staff", "bob", testPassword},
		{"Inactive", "carol", testPassword},
		{"Blank", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			h := newHarness(t)

			// Act
			res, body := h.login(t, tc.username, tc.password, "/admin/")

			// Assert
			require.Equal(t, http.StatusOK, res.StatusCode)
			require.Contains(t, body, session.BadCredsMsg)

			// Act
			res, _ = h.get(t, "/admin/")

			// Assert
			require.Equal(t, http.StatusFound, res.StatusCode)
		})
	}
}

func TestLoginThrottled(t *testing.T) {
	// Arrange
	h := newHarness(t, admin.WithLoginLimiter(middleware.NewVisitorsLimit(100, 100)))
	for i := 0; i < 5; i++ {
		res, body := h.login(t, "admin", "wrong", "")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Contains(t, body, session.BadCredsMsg)
	}

	// Act
	res, body := h.login(t, "admin", testPassword, "")

	// Assert
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	require.Contains(t, body, session.ThrottledMsg)

	// Arrange
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(2), gomock.Any()).Times(0)

	// Act
	res, body = h.login(t, "bob", "wrong", "")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, session.BadCredsMsg)
}

func TestLoginThrottledRotatingForwardedFor(t *testing.T) {
	// Arrange
	h := newHarness(t, admin.WithLoginLimiter(middleware.NewVisitorsLimit(100, 100)))
	for i := 0; i < 5; i++ {
		form := url.Values{
			admin.CSRFField: {h.csrf(t)},
			"username":      {"admin"},
			"password":      {"wrong"},
		}
		header := http.Header{"X-Forwarded-For": {fmt.Sprintf("8.8.%d.%d", i, i+1)}}
		res, body := h.postWithHeader(t, "/admin/login/", form, header)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Contains(t, body, session.BadCredsMsg)
	}

	form := url.Values{
		admin.CSRFField: {h.csrf(t)},
		"username":      {"admin"},
		"password":      {testPassword},
	}

	// Act
	res, body := h.postWithHeader(t, "/admin/login/", form, http.Header{"X-Forwarded-For": {"9.9.9.9"}})

	// Assert
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	require.Contains(t, body, session.ThrottledMsg)
}

func TestLoginMissingCSRF(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.csrf(t)

	// Act
	res, body := h.post(t, "/admin/login/", url.Values{"username": {"admin"}, "password": {testPassword}})

	// Assert
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Contains(t, body, "CSRF verification failed")
}

func TestLogout(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
	res, _ := h.login(t, "admin", testPassword, "")
	require.Equal(t, http.StatusFound, res.StatusCode)
	_, body := h.get(t, "/admin/")
	tok := csrfRegexp.FindStringSubmatch(body)
	require.Len(t, tok, 2)

	// Act
	res, body = h.post(t, "/admin/logout/", url.Values{admin.CSRFField: {tok[1]}})

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Logged out")
	require.Contains(t, body, session.LoggedOutMsg)
	require.NotContains(t, body, "Welcome,")

	// Act
	res, _ = h.get(t, "/admin/")

	// Assert
	require.Equal(t, http.StatusFound, res.StatusCode)
}

func TestLogoutMissingCSRF(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
	res, _ := h.login(t, "admin", testPassword, "")
	require.Equal(t, http.StatusFound, res.StatusCode)

	for _, form := range []url.Values{{}, {admin.CSRFField: {"not-the-token"}}} {
		// Act
		res, body := h.post(t, "/admin/logout/", form)

		// Assert
		require.Equal(t, http.StatusForbidden, res.StatusCode)
		require.Contains(t, body, "CSRF verification failed")
	}

	// Act
	res, body := h.get(t, "/admin/")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Welcome, <strong>admin</strong>.")
}

func TestLoginRotatesCSRF(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
	before := h.csrf(t)
	res, _ := h.post(t, "/admin/login/", url.Values{
		admin.CSRFField: {before},
		"username":      {"admin"},
		"password":      {testPassword},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)

	// Act
	after := h.adminCSRF(t)

	// Assert
	require.NotEqual(t, before, after)

	// Act
	res, _ = h.post(t, "/admin/logout/", url.Values{admin.CSRFField: {before}})

	// Assert
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	// Act
	res, body := h.post(t, "/admin/logout/", url.Values{admin.CSRFField: {after}})

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, session.LoggedOutMsg)
}

func TestIndexWithoutSlash(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	res, _ := h.get(t, "/admin")

	// Assert
	require.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	require.Equal(t, "/admin/", res.Header.Get("Location"))
}

func TestModelStoreFailures(t *testing.T) {
	failing := func(countErr, listErr error) admin.ModelAdmin {
		return admin.ModelAdmin{
			Name:    "group",
			Verbose: "Groups",
			Columns: []admin.Column{{Header: "Name", Value: func(v any) string { return fmt.Sprint(v) }}},
			Count:   func(context.Context) (int64, error) { return 1, countErr },
			List:    func(context.Context, int64, int64) ([]any, int64, error) { return nil, 0, listErr },
		}
	}

	t.Run("Index", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		require.Nil(t, h.site.Register(failing(errors.New("connection refused"), nil)))
		h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
		res, _ := h.login(t, "admin", testPassword, "")
		require.Equal(t, http.StatusFound, res.StatusCode)

		// Act
		res, body := h.get(t, "/admin/")

		// Assert
		require.Equal(t, http.StatusInternalServerError, res.StatusCode)
		require.Contains(t, body, html.EscapeString(session.DefaultErrMsg))
		require.Contains(t, body, `<td class="count">3</td>`)
		require.Contains(t, body, `<a href="/admin/group/">Groups</a>`)
		require.NotContains(t, body, "connection refused")
	})

	t.Run("Changelist", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		require.Nil(t, h.site.Register(failing(nil, errors.New("connection refused"))))
		h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
		res, _ := h.login(t, "admin", testPassword, "")
		require.Equal(t, http.StatusFound, res.StatusCode)

		// Act
		res, _ = h.get(t, "/admin/group/")

		// Assert
		require.Equal(t, http.StatusFound, res.StatusCode)
		require.Equal(t, acrsample.AdminHomePath, res.Header.Get("Location"))

		// Act
		res, body := h.get(t, "/admin/")

		// Assert
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Contains(t, body, html.EscapeString(session.DefaultErrMsg))
		require.NotContains(t, body, "connection refused")

		// Act
		_, body = h.get(t, "/admin/")

		// Assert
		require.NotContains(t, body, html.EscapeString(session.DefaultErrMsg))
	})
}

func TestChangelist(t *testing.T) {
	// Arrange
	h := newHarness(t, admin.WithPerPage(2))
	h.users.EXPECT().UpdateLastLogin(gomock.Any(), uint(1), gomock.Any()).Return(nil)
	res, _ := h.login(t, "admin", testPassword, "")
	require.Equal(t, http.StatusFound, res.StatusCode)

	for _, tc := range []struct {
		name     string
		path     string
		code     int
		contains []string
		excludes []string
	}{
		{"First-Page", "/admin/user/", http.StatusOK, []string{"Select users to change", "<td>admin</td>", "<td>bob</td>", `href="?p=2"`}, []string{"<td>carol</td>"}},
		{"Second-Page", "/admin/user/?p=2", http.StatusOK, []string{"<td>carol</td>", `href="?p=1"`}, []string{"<td>admin</td>"}},
		{"Past-Last-Page", "/admin/user/?p=3", http.StatusNotFound, nil, nil},
		{"Bad-Page", "/admin/user/?p=zero", http.StatusNotFound, nil, nil},
		{"Unknown-Model", "/admin/group/", http.StatusNotFound, []string{"could not be found"}, nil},
		{"Unknown-Path", "/admin/user/1/change/", http.StatusNotFound, nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			res, body := h.get(t, tc.path)

			// Assert
			require.Equal(t, tc.code, res.StatusCode)
			for _, s := range tc.contains {
				require.Contains(t, body, s)
			}

			for _, s := range tc.excludes {
				require.NotContains(t, body, s)
			}
		})
	}
}

func TestUnknownPathAnonymous(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	res, _ := h.get(t, "/admin/user/1/change/")

	// Assert
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.True(t, strings.HasPrefix(res.Header.Get("Location"), "/admin/login/?next="))
}

func TestNonStaffSession(t *testing.T) {
	// Arrange
	h := newHarness(t, admin.WithClock(func() time.Time { return time.Unix(0, 0) }))

	// Act
	res, _ := h.login(t, "bob", testPassword, "")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Act
	res, body := h.get(t, "/admin/login/")

	// Assert
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotContains(t, body, "You are authenticated as")
}

func TestRegister(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	users := mock.NewMockUserStore(ctrl)
	site, err := admin.NewSite(resp.NewResponder(), users)
	require.Nil(t, err)
	valid := admin.ModelAdmin{
		Name:    "group",
		Verbose: "Groups",
		Columns: []admin.Column{{Header: "Name", Value: func(v any) string { return fmt.Sprint(v) }}},
		Count:   func(context.Context) (int64, error) { return 0, nil },
		List:    func(context.Context, int64, int64) ([]any, int64, error) { return nil, 0, nil },
	}

	for _, tc := range []struct {
		name  string
		model func() admin.ModelAdmin
		err   error
	}{
		{"Bad-Name", func() admin.ModelAdmin { m := valid; m.Name = "Group s"; return m }, admin.ErrBadModel},
		{"No-Verbose", func() admin.ModelAdmin { m := valid; m.Verbose = ""; return m }, admin.ErrBadModel},
		{"No-Columns", func() admin.ModelAdmin { m := valid; m.Columns = nil; return m }, admin.ErrBadModel},
		{"No-Count", func() admin.ModelAdmin { m := valid; m.Count = nil; return m }, admin.ErrBadModel},
		{"Duplicate", func() admin.ModelAdmin { m := valid; m.Name = "user"; return m }, acrsample.ErrExists},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, site.Register(tc.model()), tc.err)
		})
	}

	// Act
	err = site.Register(valid)

	// Assert
	require.Nil(t, err)
	models := site.Models()
	require.Len(t, models, 2)
	require.Equal(t, "user", models[0].Name)
	require.Equal(t, "group", models[1].Name)

	// Act
	_, err = admin.NewSite(nil, users)

	// Assert
	require.ErrorIs(t, err, acrsample.ErrBadConfig)
}

func TestMountNames(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	site, err := admin.NewSite(resp.NewResponder(), mock.NewMockUserStore(ctrl))
	require.Nil(t, err)
	r := router.New(acrsample.Testing, nil)

	// Act
	err = site.Mount(r, "/admin")

	// Assert
	require.Nil(t, err)
	for name, expected := range map[string]string{
		"admin:index":  "/admin/",
		"admin:login":  "/admin/login/",
		"admin:logout": "/admin/logout/",
	} {
		actual, err := r.Reverse(name)
		require.Nil(t, err)
		require.Equal(t, expected, actual)
	}

	actual, err := r.Reverse("admin:changelist", "model", "user")
	require.Nil(t, err)
	require.Equal(t, "/admin/user/", actual)
}
