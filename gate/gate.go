// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gate

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Outcome int

const (
	Pass Outcome = iota
	Redirect
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Redirect:
		return "redirect"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Decision is the result of running the gate over one request
type Decision struct {
	Outcome  Outcome
	Location string
	Status   int
	Rule     string
}

// Request is the part of an HTTP request the rules look at
type Request struct {
	Method    string
	Path      string
	RawQuery  string
	UserAgent string
	Country   string

	// Authenticated is called only by rules that need a session
	Authenticated func() bool
}

// Rule is one policy check. It returns false when it has no opinion and the
// next rule should run.
type Rule interface {
	Name() string
	Evaluate(r *Request) (Decision, bool)
}

type Options struct {
	Deadline         string
	AllowedCountries []string
	RegionAction     string
	ForceCountry     string
	Now              func() time.Time
	Authenticated    func(r *http.Request) bool
}

// Gate runs its rules in order; the first rule with an opinion wins
type Gate struct {
	rules        []Rule
	closed       *Closed
	forceCountry string
	authFn       func(r *http.Request) bool
}

// New builds a gate from rule names. always-allowed is implied and always
// runs first.
func New(order []string, opts Options) (*Gate, error) {
	g := &Gate{
		rules:        []Rule{AlwaysAllowed{}},
		closed:       NewClosed(opts.Deadline, opts.Now),
		forceCountry: strings.ToUpper(opts.ForceCountry),
		authFn:       opts.Authenticated,
	}

	seen := map[string]bool{}
	for _, name := range order {
		name = strings.TrimSpace(name)
		if seen[name] {
			return nil, fmt.Errorf("gate rule %q listed twice", name)
		}
		seen[name] = true

		switch name {
		case RuleAlwaysAllowed:
			// already first
		case RuleClosed:
			g.rules = append(g.rules, g.closed)
		case RuleRegion:
			g.rules = append(g.rules, NewRegion(opts.AllowedCountries, opts.RegionAction))
		case RuleWebview:
			g.rules = append(g.rules, Webview{})
		case RuleAuth:
			g.rules = append(g.rules, RequireAuth{})
		default:
			return nil, fmt.Errorf("unknown gate rule %q", name)
		}
	}

	if _, ok := g.closed.Deadline(); !ok && strings.TrimSpace(opts.Deadline) != "" {
		slog.Warn("vote deadline is not a valid timestamp; voting stays open", "deadline", opts.Deadline)
	}

	return g, nil
}

// Rules returns the rule names in evaluation order
func (g *Gate) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name()
	}
	return names
}

// Closed exposes the deadline rule for the closed page
func (g *Gate) Closed() *Closed {
	return g.closed
}

// Decide runs the rules over req
func (g *Gate) Decide(req *Request) Decision {
	for _, rule := range g.rules {
		if d, ok := rule.Evaluate(req); ok {
			d.Rule = rule.Name()
			return d
		}
	}
	return Decision{Outcome: Pass}
}

// Country returns the geo signal for r, upper-cased. Cloudflare's "XX"
// (unknown) counts as no signal.
func (g *Gate) Country(r *http.Request) string {
	country := g.forceCountry
	if country == "" {
		country = r.Header.Get("X-Vercel-IP-Country")
	}
	if country == "" {
		country = r.Header.Get("CF-IPCountry")
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "XX" {
		return ""
	}
	return country
}

// Middleware applies the gate before next
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawQuery:  r.URL.RawQuery,
			UserAgent: r.UserAgent(),
			Country:   g.Country(r),
			Authenticated: func() bool {
				return g.authFn != nil && g.authFn(r)
			},
		}

		d := g.Decide(req)
		if d.Outcome != Pass {
			slog.Debug("gate decision",
				"rule", d.Rule,
				"outcome", d.Outcome.String(),
				"path", r.URL.Path,
				"location", d.Location,
			)
		}

		switch d.Outcome {
		case Redirect:
			http.Redirect(w, r, d.Location, d.Status)
		case Reject:
			http.NotFound(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
