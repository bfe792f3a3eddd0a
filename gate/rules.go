// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gate

import (
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Paths may carry an optional locale prefix such as /en/ or /en-GB/. The
// router strips it in i18n.Catalog.Middleware before the gate runs; the
// prefix is still accepted so the gate classifies paths the same way when
// it is mounted without that middleware.
const localePrefix = `^/(?:[a-z]{2}(?:-[A-Z]{2})?/)?`

var (
	alwaysAllowedRE = regexp.MustCompile(localePrefix + `(?:login|signup|auth(?:/.*)?|not-available|closed|open-in-browser|health)(?:/|$)`)
	protectedRE     = regexp.MustCompile(localePrefix + `(?:vote|results)(?:/|$)`)
	staticAssetRE   = regexp.MustCompile(`(?:^/static/|^/favicon\.ico$|^/robots\.txt$|\.(?:png|jpg|jpeg|gif|svg|webp|ico|css|js|map|txt)$)`)
	inAppRE         = regexp.MustCompile(`(?i)KAKAOTALK|NAVER|Instagram|FBAN|FBAV|FB_IAB|\bLine/`)
)

// Landing pages the gate redirects to
const (
	ClosedPath       = "/closed"
	NotAvailablePath = "/not-available"
	OpenInBrowserURL = "/open-in-browser"
	LoginPath        = "/login"
)

// Rule names accepted in GATE_ORDER
const (
	RuleAlwaysAllowed = "always-allowed"
	RuleClosed        = "closed"
	RuleRegion        = "region"
	RuleWebview       = "webview"
	RuleAuth          = "auth"
)

// IsProtected reports whether path needs a session
func IsProtected(path string) bool {
	return protectedRE.MatchString(path)
}

// IsAlwaysAllowed reports whether path bypasses every other rule
func IsAlwaysAllowed(path string) bool {
	return alwaysAllowedRE.MatchString(path)
}

// InAppBrowser reports whether the user agent belongs to a known in-app
// browser or webview. An empty or malformed agent is not in-app.
func InAppBrowser(userAgent string) bool {
	return inAppRE.MatchString(userAgent)
}

// returnTarget is the path+query a redirect should bring the user back to
func (r *Request) returnTarget() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// WithRedirect appends ?redirect=<target> to a landing path
func WithRedirect(path, target string) string {
	q := url.Values{}
	q.Set("redirect", target)
	return path + "?" + q.Encode()
}

// AlwaysAllowed passes the landing pages, auth routes, preflight requests
// and static assets so the other rules cannot loop.
type AlwaysAllowed struct{}

func (AlwaysAllowed) Name() string { return RuleAlwaysAllowed }

func (AlwaysAllowed) Evaluate(r *Request) (Decision, bool) {
	if r.Method == http.MethodOptions || IsAlwaysAllowed(r.Path) || staticAssetRE.MatchString(r.Path) {
		return pass(), true
	}
	return Decision{}, false
}

// Closed redirects everything to the closed page once the deadline passes
type Closed struct {
	deadline time.Time
	set      bool
	now      func() time.Time
}

// NewClosed parses the deadline once. An empty or unparsable deadline means
// voting never closes.
func NewClosed(deadline string, now func() time.Time) *Closed {
	if now == nil {
		now = time.Now
	}
	t, ok := ParseDeadline(deadline)
	return &Closed{deadline: t, set: ok, now: now}
}

func (c *Closed) Name() string { return RuleClosed }

// IsClosed reports whether now >= deadline
func (c *Closed) IsClosed() bool {
	return c.set && !c.now().Before(c.deadline)
}

// Deadline returns the parsed deadline, if any
func (c *Closed) Deadline() (time.Time, bool) {
	return c.deadline, c.set
}

func (c *Closed) Evaluate(*Request) (Decision, bool) {
	if c.IsClosed() {
		return redirect(ClosedPath), true
	}
	return Decision{}, false
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeadline accepts RFC 3339 and a few ISO-8601 shapes. Timestamps
// without a zone are read as UTC.
func ParseDeadline(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Region keeps out requests whose country signal is outside the allow-set.
// A missing signal is let through.
type Region struct {
	allowed []string
	reject  bool
}

// NewRegion builds the region rule. action is "redirect" or "reject".
func NewRegion(allowed []string, action string) *Region {
	codes := make([]string, 0, len(allowed))
	for _, c := range allowed {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(c)))
	}
	return &Region{allowed: codes, reject: action == "reject"}
}

func (g *Region) Name() string { return RuleRegion }

func (g *Region) Evaluate(r *Request) (Decision, bool) {
	if r.Country == "" || slices.Contains(g.allowed, r.Country) {
		return Decision{}, false
	}
	if g.reject {
		return Decision{Outcome: Reject, Status: http.StatusNotFound}, true
	}
	return redirect(NotAvailablePath), true
}

// Webview sends in-app browsers on protected pages to the open-in-browser
// page, keeping the original destination.
type Webview struct{}

func (Webview) Name() string { return RuleWebview }

func (Webview) Evaluate(r *Request) (Decision, bool) {
	if !IsProtected(r.Path) || !InAppBrowser(r.UserAgent) {
		return Decision{}, false
	}
	return redirect(WithRedirect(OpenInBrowserURL, r.returnTarget())), true
}

// RequireAuth sends visitors without a session on protected pages to login
type RequireAuth struct{}

func (RequireAuth) Name() string { return RuleAuth }

func (RequireAuth) Evaluate(r *Request) (Decision, bool) {
	if !IsProtected(r.Path) {
		return Decision{}, false
	}
	if r.Authenticated != nil && r.Authenticated() {
		return Decision{}, false
	}
	return redirect(WithRedirect(LoginPath, r.returnTarget())), true
}

func pass() Decision {
	return Decision{Outcome: Pass}
}

func redirect(location string) Decision {
	return Decision{Outcome: Redirect, Location: location, Status: http.StatusFound}
}
