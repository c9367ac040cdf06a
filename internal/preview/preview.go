// Package preview toggles draft-mode rendering via a cookie.
package preview

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "site_preview"

// Config controls preview mode.
type Config struct {
	Secret     string
	CookieName string
	// Secure marks the cookie Secure; disabled for plain-HTTP development.
	Secure bool
}

// Mode issues and clears the preview cookie.
type Mode struct {
	secret     string
	cookieName string
	secure     bool
}

// New constructs a Mode.
func New(cfg Config) *Mode {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Mode{secret: cfg.Secret, cookieName: name, secure: cfg.Secure}
}

// Authorize reports whether given matches the configured secret. An
// unconfigured secret rejects everything.
func (m *Mode) Authorize(given string) bool {
	if m.secret == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(m.secret)) == 1
}

// EnableCookie returns the cookie that turns preview mode on.
func (m *Mode) EnableCookie() *http.Cookie {
	return m.cookie("1", 0)
}

// ClearCookie returns a cookie that deletes the preview cookie.
func (m *Mode) ClearCookie() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Mode) cookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if m.secure {
		// Embedded CMS studios load the site in a cross-site iframe.
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: sameSite,
	}
}

// DocumentPath resolves where a previewed document renders.
func DocumentPath(docType, slug string) string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return "/"
	}
	escaped := url.PathEscape(slug)
	switch docType {
	case "post":
		return "/blog/" + escaped
	case "service":
		return "/services/" + escaped
	default:
		return "/" + escaped
	}
}

// SafeRedirect returns target when it is a site-relative path, else "/".
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
