// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"

	"github.com/danielhkuo/quickly-vote/i18n"
	"github.com/danielhkuo/quickly-vote/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"intro",
	"login",
	"vote",
	"results",
	"closed",
	"not_available",
	"open_in_browser",
}

// SessionReader reads the signed-in user from a request
type SessionReader interface {
	CurrentUser(r *http.Request) (models.User, error)
}

// Renderer executes the page templates with the request's locale
type Renderer struct {
	catalog  *i18n.Catalog
	sessions SessionReader
	pages    map[string]*template.Template
}

// page is what every template receives
type page struct {
	i18n.Localizer
	User      *models.User
	CSRFField template.HTML
	Here      string
	Refresh   int
	Rankings  *rankingsView
	Data      any
}

type rankingsView struct {
	Champions []models.RankingRow
	Remaining []models.RankingRow
	MyTeamID  int64
	FetchedAt time.Time
	Failed    bool
}

var templateFuncs = template.FuncMap{
	"comma": humanize.Comma,
	"ago":   humanize.Time,
	"lower": strings.ToLower,
	"inc":   func(i int) int { return i + 1 },
}

func NewRenderer(catalog *i18n.Catalog, sessions SessionReader) (*Renderer, error) {
	r := &Renderer{
		catalog:  catalog,
		sessions: sessions,
		pages:    make(map[string]*template.Template, len(pageNames)),
	}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (rn *Renderer) newPage(r *http.Request, data any) *page {
	p := &page{
		Localizer: rn.catalog.FromRequest(r),
		CSRFField: csrf.TemplateField(r),
		Here:      r.URL.RequestURI(),
		Data:      data,
	}
	if rn.sessions != nil {
		if u, err := rn.sessions.CurrentUser(r); err == nil {
			p.User = &u
		}
	}
	return p
}

// Render writes the named page. The page is executed into a buffer first so
// a template error still produces a clean 500.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	rn.render(w, status, name, rn.newPage(r, data))
}

func (rn *Renderer) render(w http.ResponseWriter, status int, name string, p *page) {
	t, ok := rn.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("failed to render template", "error", err, "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
