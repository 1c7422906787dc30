package browser

import (
	"net/url"
	"strings"
)

// Guard decides whether the in-app browser may load a URL or must yield it to
// the OS-level deep-link handler. If the browser rendered the final callback
// redirect as a page, the outcome would be silently dropped before the
// redirect listener ever saw it.
type Guard struct {
	scheme       string
	callbackPath string
}

// New builds a guard for the app's own callback scheme and path, e.g.
// ("emotorent", "/payment/callback").
func New(scheme, callbackPath string) *Guard {
	return &Guard{
		scheme:       strings.ToLower(scheme),
		callbackPath: callbackPath,
	}
}

// ShouldLoad returns false only for the app's own callback URL. Provider
// pages, intermediate bank redirects and unparsable URLs all load normally.
func (g *Guard) ShouldLoad(requestURL string) bool {
	u, err := url.Parse(requestURL)
	if err != nil {
		return true
	}

	if !strings.EqualFold(u.Scheme, g.scheme) {
		return true
	}

	// Custom-scheme URLs put the first path segment into Host:
	// "emotorent://payment/callback" parses as Host "payment", Path "/callback".
	path := u.Path
	if u.Host != "" {
		path = "/" + u.Host + u.Path
	}

	return !strings.HasPrefix(path, g.callbackPath)
}
