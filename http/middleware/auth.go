package middleware

import (
	"net/http"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/resp"
)

// An AuthorizeApplicator builds middleware checking the current User is allowed through.
type AuthorizeApplicator[U User] struct {
	d         *resp.Responder
	loginPath string
}

// NewAuthorizeApplicator constructs an AuthorizeApplicator
// sending requests without an acceptable User to loginPath.
func NewAuthorizeApplicator[U User](d *resp.Responder, loginPath string) AuthorizeApplicator[U] {
	if d == nil {
		d = resp.NewResponder()
	}

	return AuthorizeApplicator[U]{d: d, loginPath: loginPath}
}

// Apply returns an Adapter passing the request along when fn approves the current User.
//
// Requests lacking a User of type U, or whose User fn rejects,
// are redirected to the login path with a "next" param.
// Requests accepting JSON receive 401 or 403 respectively.
func (aa AuthorizeApplicator[U]) Apply(fn func(U) bool) Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(acrsample.CurrentUserKey).(U)
			if ok && fn(user) {
				h.ServeHTTP(w, r)
				return
			}

			if acceptsJSON(r.Header) {
				code := http.StatusUnauthorized
				if ok {
					code = http.StatusForbidden
				}

				err := aa.d.Json(w, r, resp.Code(code), resp.Data(map[string]string{"error": http.StatusText(code)}))
				if err != nil {
					aa.d.Err(w, r, err)
				}
				return
			}

			err := aa.d.Redirect(w, r, resp.Url(aa.loginPath), resp.Param("next", r.URL.RequestURI()), resp.Code(http.StatusFound))
			if err != nil {
				aa.d.Err(w, r, err)
			}
		})
	}
}
