// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Locales served by the application; the first is the fallback of last resort
var Locales = []string{"ko", "en"}

// LocaleCookieName remembers an explicitly chosen locale
const LocaleCookieName = "lang"

// Catalog holds every message of every locale. Build it once at startup and
// pass it to whoever renders text.
type Catalog struct {
	defaultLocale string
	messages      map[string]map[string]string
	matcher       language.Matcher
}

func New(defaultLocale string) (*Catalog, error) {
	c := &Catalog{
		defaultLocale: defaultLocale,
		messages:      make(map[string]map[string]string, len(Locales)),
	}

	for _, loc := range Locales {
		raw, err := localeFS.ReadFile("locales/" + loc + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", loc, err)
		}
		var msgs map[string]string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", loc, err)
		}
		c.messages[loc] = msgs
	}

	if !c.Supported(defaultLocale) {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLocale)
	}

	// Matcher prefers the default locale when nothing matches
	tags := []language.Tag{language.Make(defaultLocale)}
	for _, loc := range Locales {
		if loc != defaultLocale {
			tags = append(tags, language.Make(loc))
		}
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

func (c *Catalog) Default() string {
	return c.defaultLocale
}

func (c *Catalog) Supported(locale string) bool {
	_, ok := c.messages[locale]
	return ok
}

// Match picks a supported locale for an Accept-Language header
func (c *Catalog) Match(acceptLanguage string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.defaultLocale
	}
	tag, _, _ := c.matcher.Match(prefs...)
	base, _ := tag.Base()
	if c.Supported(base.String()) {
		return base.String()
	}
	return c.defaultLocale
}

// T looks up key in locale, then in the default locale. Unknown keys are
// returned as-is.
func (c *Catalog) T(locale, key string) string {
	if msg, ok := c.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := c.messages[c.defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Localizer binds a catalog to one locale
type Localizer struct {
	Locale  string
	catalog *Catalog
}

func (c *Catalog) Localizer(locale string) Localizer {
	if !c.Supported(locale) {
		locale = c.defaultLocale
	}
	return Localizer{Locale: locale, catalog: c}
}

func (l Localizer) T(key string) string {
	return l.catalog.T(l.Locale, key)
}

type ctxKey struct{}

func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFrom returns the request locale, or "" if none was resolved
func LocaleFrom(ctx context.Context) string {
	loc, _ := ctx.Value(ctxKey{}).(string)
	return loc
}

// FromRequest returns a Localizer for the locale the middleware resolved
func (c *Catalog) FromRequest(r *http.Request) Localizer {
	return c.Localizer(LocaleFrom(r.Context()))
}

// Middleware resolves the request locale and strips a /{locale} prefix from
// the path, so /en/vote is routed as /vote. Precedence: path prefix, the
// lang cookie, Accept-Language, default.
func (c *Catalog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale, rest, prefixed := c.splitPrefix(r.URL.Path)

		if prefixed {
			http.SetCookie(w, &http.Cookie{
				Name:     LocaleCookieName,
				Value:    locale,
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			})
		} else if cookie, err := r.Cookie(LocaleCookieName); err == nil && c.Supported(cookie.Value) {
			locale = cookie.Value
		} else {
			locale = c.Match(r.Header.Get("Accept-Language"))
		}

		r2 := r.Clone(WithLocale(r.Context(), locale))
		if prefixed {
			r2.URL.Path = rest
			r2.URL.RawPath = ""
		}
		next.ServeHTTP(w, r2)
	})
}

func (c *Catalog) splitPrefix(path string) (locale, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	head, tail, _ := strings.Cut(trimmed, "/")
	if !c.Supported(head) {
		return "", path, false
	}
	return head, "/" + tail, true
}
