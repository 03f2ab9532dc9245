package template

import (
	"net/url"

	"github.com/xy-planning-network/acrsample"
)

// Env wraps e in a function with the name "env".
func Env(e acrsample.Environment) (string, func() string) {
	return "env", func() string { return e.String() }
}

// RootUrl wraps u in a function with the name "rootUrl".
func RootUrl(u *url.URL) (string, func() string) {
	return "rootUrl", func() string {
		if u == nil {
			return ""
		}

		return u.String()
	}
}

// Title wraps title in a function with the name "title".
func Title(title string) (string, func() string) {
	return "title", func() string { return title }
}
