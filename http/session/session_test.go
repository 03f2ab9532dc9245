package session_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gorilla "github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/acrsample/http/session"
)

// idStore keeps sessions server side under generated IDs, the way redistore does.
type idStore struct {
	next  int
	saved map[string]map[any]any
}

func (st *idStore) Get(r *http.Request, name string) (*gorilla.Session, error) {
	return st.New(r, name)
}

func (st *idStore) New(_ *http.Request, name string) (*gorilla.Session, error) {
	g := gorilla.NewSession(st, name)
	g.Options = &gorilla.Options{Path: "/", MaxAge: 60}
	return g, nil
}

func (st *idStore) Save(_ *http.Request, w http.ResponseWriter, g *gorilla.Session) error {
	if g.Options.MaxAge < 0 {
		delete(st.saved, g.ID)
		http.SetCookie(w, gorilla.NewCookie(g.Name(), "", g.Options))
		return nil
	}

	if g.ID == "" {
		st.next++
		g.ID = fmt.Sprintf("id-%d", st.next)
	}

	vals := make(map[any]any, len(g.Values))
	for k, v := range g.Values {
		vals[k] = v
	}

	st.saved[g.ID] = vals
	http.SetCookie(w, gorilla.NewCookie(g.Name(), g.ID, g.Options))
	return nil
}

func TestRenewUser(t *testing.T) {
	// Arrange
	st := &idStore{saved: make(map[string]map[any]any)}
	g, err := st.New(nil, "acrsample-test")
	require.Nil(t, err)
	g.ID = "planted"
	g.Values["csrf"] = "known-to-attacker"
	g.Values["keep"] = "yes"
	st.saved["planted"] = map[any]any{"csrf": "known-to-attacker", "keep": "yes"}
	s := session.NewSession(g)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/admin/login/", nil)

	// Act
	err = s.RenewUser(w, r, 7, "csrf")

	// Assert
	require.Nil(t, err)
	require.NotContains(t, st.saved, "planted")
	require.NotEqual(t, "planted", g.ID)
	require.Contains(t, st.saved, g.ID)
	require.Equal(t, "yes", st.saved[g.ID]["keep"])
	require.NotContains(t, st.saved[g.ID], "csrf")
	require.Equal(t, 60, g.Options.MaxAge)

	id, err := s.UserID()
	require.Nil(t, err)
	require.Equal(t, uint(7), id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, g.ID, cookies[len(cookies)-1].Value)
}

func TestRenewUserCookieStore(t *testing.T) {
	// Arrange
	svc, err := session.NewStoreService(newTestConfig())
	require.Nil(t, err)
	r := httptest.NewRequest(http.MethodPost, "https://example.com/admin/login/", nil)
	s, err := svc.GetSession(r)
	require.Nil(t, err)
	w := httptest.NewRecorder()
	require.Nil(t, s.Set(w, r, "csrf", "token"))

	// Act
	err = s.RenewUser(w, r, 7, "csrf")

	// Assert
	require.Nil(t, err)
	cookies := w.Result().Cookies()
	next := httptest.NewRequest(http.MethodGet, "https://example.com/admin/", nil)
	next.AddCookie(cookies[len(cookies)-1])

	s, err = svc.GetSession(next)
	require.Nil(t, err)
	id, err := s.UserID()
	require.Nil(t, err)
	require.Equal(t, uint(7), id)
	require.Nil(t, s.Get("csrf"))
}
