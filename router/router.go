// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/i18n"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/selection"
	"github.com/danielhkuo/quickly-vote/store"
)

// Deps are the long-lived services the routes share
type Deps struct {
	Rows       *store.Store
	Selections selection.Store
	Provider   *auth.Provider
	Catalog    *i18n.Catalog
	Gate       *gate.Gate
	Poller     *ranking.Poller
	Config     cliparse.Config
}

// NewRouter builds the handler chain:
// CORS -> locale -> gate -> CSRF (when CSRF_KEY is set) -> routes
func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	mux := http.NewServeMux()

	render, err := handlers.NewRenderer(d.Catalog, d.Provider)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(d.Provider, d.Gate.Closed(), render, cfg)
	authHandler := handlers.NewAuthHandler(d.Provider, render)
	voteHandler := handlers.NewVoteHandler(d.Rows, d.Selections, d.Provider, d.Poller, render, cfg)
	resultsHandler := handlers.NewResultsHandler(d.Rows, d.Provider, d.Poller, render, cfg)
	apiHandler := handlers.NewAPIHandler(d.Rows, d.Provider, d.Poller, cfg)

	// Health check
	mux.HandleFunc("GET /health", pageHandler.Health)

	// Pages
	mux.HandleFunc("GET /{$}", middleware.WithLogging(pageHandler.Intro))
	mux.HandleFunc("GET /closed", middleware.WithLogging(pageHandler.Closed))
	mux.HandleFunc("GET /not-available", middleware.WithLogging(pageHandler.NotAvailable))
	mux.HandleFunc("GET /open-in-browser", middleware.WithLogging(pageHandler.OpenInBrowser))

	// Login
	mux.HandleFunc("GET /login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("GET /auth/start", middleware.WithLogging(authHandler.Start))
	mux.HandleFunc("GET /auth/callback", middleware.WithLogging(authHandler.Callback))
	mux.HandleFunc("POST /logout", middleware.WithLogging(authHandler.Logout))

	// Voting wizard
	mux.HandleFunc("GET /vote", middleware.WithLogging(voteHandler.GetVote))
	mux.HandleFunc("POST /vote/country", middleware.WithLogging(voteHandler.SelectCountry))
	mux.HandleFunc("POST /vote/team", middleware.WithLogging(voteHandler.SelectTeam))
	mux.HandleFunc("POST /vote/submit", middleware.WithLogging(voteHandler.Submit))
	mux.HandleFunc("POST /vote/reset", middleware.WithLogging(voteHandler.Reset))

	// Rankings
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))

	// JSON API
	mux.HandleFunc("GET /api/countries", middleware.WithLogging(apiHandler.ListCountries))
	mux.HandleFunc("GET /api/countries/{id}/teams", middleware.WithLogging(apiHandler.ListTeams))
	mux.HandleFunc("GET /api/votes/me", middleware.WithLogging(apiHandler.GetMyVote))
	mux.HandleFunc("POST /api/votes", middleware.WithLogging(apiHandler.SubmitVote))
	mux.HandleFunc("GET /api/rankings", middleware.WithLogging(apiHandler.GetRankings))

	var h http.Handler = mux
	if cfg.CSRFKey != "" {
		h = protectForms(cfg)(h)
	}
	h = d.Gate.Middleware(h)
	h = d.Catalog.Middleware(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h, nil
}

// protectForms adds CSRF tokens to the HTML forms. The JSON API is left
// out; it only accepts application/json bodies.
func protectForms(cfg cliparse.Config) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(cfg.CookieSecure()),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	}
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		opts = append(opts, csrf.TrustedOrigins([]string{u.Host}))
	}
	protect := csrf.Protect([]byte(cfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			if !cfg.CookieSecure() {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
