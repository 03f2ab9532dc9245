package admin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/acrsample"
)

const (
	// CSRFField is the form field carrying the token.
	CSRFField = "csrfmiddlewaretoken"

	csrfSessionKey = "acrsample-admin-csrf"
	csrfTokenLen   = 32
)

// csrfToken retrieves the token stored in the session, creating one if absent.
func (s *Site) csrfToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := s.responder.Session(r.Context())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoSession, err)
	}

	if tok, ok := sess.Get(csrfSessionKey).(string); ok && tok != "" {
		return tok, nil
	}

	b := make([]byte, csrfTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	tok := hex.EncodeToString(b)
	if err := sess.Set(w, r, csrfSessionKey, tok); err != nil {
		return "", fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return tok, nil
}

// checkCSRF asserts the submitted token matches the one in the session.
// The form must already be parsed.
func (s *Site) checkCSRF(r *http.Request) error {
	sess, err := s.responder.Session(r.Context())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCSRF, err)
	}

	want, _ := sess.Get(csrfSessionKey).(string)
	got := r.PostForm.Get(CSRFField)
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrCSRF
	}

	return nil
}
