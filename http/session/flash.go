package session

import "net/http"

const (
	// Default Flash Class
	FlashError   = "error"
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashWarning = "warning"

	// Default Flash Msg
	BadCredsMsg   = "Please enter the correct username and password for a staff account. Note that both fields may be case-sensitive."
	DefaultErrMsg = "Uh oh! We've run into an issue."
	LoggedOutMsg  = "Thanks for spending some quality time with the web site today."
	NoAccessMsg   = "Oops, sending you back somewhere safe."
	ThrottledMsg  = "Too many failed login attempts. Please try again later."
)

var ContactUsErr = DefaultErrMsg + " Please contact us at %s if the issue persists."

type FlashSessionable interface {
	Flashes(w http.ResponseWriter, r *http.Request) []Flash
	SetFlash(w http.ResponseWriter, r *http.Request, flash Flash) error
}

// A Flash is a one-time message shown to the user on the next rendered page.
type Flash struct {
	Class string `json:"class"`
	Msg   string `json:"msg"`
}
