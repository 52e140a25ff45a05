package authz

import (
	"net/url"
	"strings"
)

// LoginLocation builds /login?redirect=<escaped path[?query]>.
func LoginLocation(p, rawQuery string) string {
	target := p
	if target == "" {
		target = "/"
	}
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return LoginPath + "?" + RedirectParam + "=" + url.QueryEscape(target)
}

// SafeRedirect validates an already-decoded post-login target. Only
// same-origin absolute paths without dot-dot segments are honored.
func SafeRedirect(target string) (string, bool) {
	if target == "" || !strings.HasPrefix(target, "/") {
		return "", false
	}
	// "//host" and "/\host" are treated as network-path references by browsers.
	if strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "", false
	}
	if strings.Contains(target, "..") {
		return "", false
	}
	return target, true
}

// DecodeRedirect unescapes a raw redirect parameter value and validates it.
func DecodeRedirect(encoded string) (string, bool) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", false
	}
	return SafeRedirect(decoded)
}

// PostLoginTarget picks where to send a freshly signed-in user.
func PostLoginTarget(redirect string) string {
	if t, ok := SafeRedirect(redirect); ok {
		return t
	}
	return DashboardPath
}
