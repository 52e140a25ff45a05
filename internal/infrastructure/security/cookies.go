package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

const (
	AccessCookieName  = "portal-access-token"
	RefreshCookieName = "portal-refresh-token"

	hostPrefix = "__Host-"
)

// Cookies manages the session cookie pair. When secure, names carry the
// __Host- prefix, which browsers only accept with Secure and Path=/.
type Cookies struct {
	secure bool
	now    func() time.Time
}

func NewCookies(secure bool) *Cookies {
	return &Cookies{secure: secure, now: time.Now}
}

func (c *Cookies) name(base string) string {
	if c.secure {
		return hostPrefix + base
	}
	return base
}

func (c *Cookies) AccessName() string  { return c.name(AccessCookieName) }
func (c *Cookies) RefreshName() string { return c.name(RefreshCookieName) }

// Read returns the session pair. When secure only the __Host- names count:
// a bare name can be planted by a sibling subdomain. Local non-HTTPS dev
// prefers the __Host- cookie and falls back to the bare name.
func (c *Cookies) Read(r *http.Request) (access, refresh string) {
	return c.read(r, AccessCookieName), c.read(r, RefreshCookieName)
}

func (c *Cookies) read(r *http.Request, base string) string {
	if ck, err := r.Cookie(hostPrefix + base); err == nil && ck.Value != "" {
		return ck.Value
	}
	if c.secure {
		return ""
	}
	if ck, err := r.Cookie(base); err == nil {
		return ck.Value
	}
	return ""
}

func (c *Cookies) Write(w http.ResponseWriter, s domain.Session, refreshTTL time.Duration) {
	// zero MaxAge leaves a browser-session cookie
	accessAge := 0
	if !s.ExpiresAt.IsZero() {
		accessAge = max(int(s.ExpiresAt.Sub(c.now()).Seconds()), 1)
	}
	c.set(w, AccessCookieName, s.AccessToken, accessAge)
	c.set(w, RefreshCookieName, s.RefreshToken, int(refreshTTL.Seconds()))
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	c.set(w, AccessCookieName, "", -1)
	c.set(w, RefreshCookieName, "", -1)
}

func (c *Cookies) set(w http.ResponseWriter, base, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(base),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// ApplyToRequest replaces the session pair in r's Cookie header, keeping any
// unrelated cookies.
func (c *Cookies) ApplyToRequest(r *http.Request, s domain.Session) {
	drop := map[string]bool{
		AccessCookieName:               true,
		RefreshCookieName:              true,
		hostPrefix + AccessCookieName:  true,
		hostPrefix + RefreshCookieName: true,
	}

	parts := make([]string, 0, 4)
	for _, ck := range r.Cookies() {
		if drop[ck.Name] {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	parts = append(parts,
		(&http.Cookie{Name: c.AccessName(), Value: s.AccessToken}).String(),
		(&http.Cookie{Name: c.RefreshName(), Value: s.RefreshToken}).String(),
	)
	r.Header.Set("Cookie", strings.Join(parts, "; "))
}
