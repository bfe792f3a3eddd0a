// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/gate"
)

type AuthHandler struct {
	provider *auth.Provider
	render   *Renderer
}

func NewAuthHandler(provider *auth.Provider, render *Renderer) *AuthHandler {
	return &AuthHandler{provider: provider, render: render}
}

// Login handles GET /login?redirect=
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// The gate lets login through before its webview rule runs, so the
	// in-app check happens here.
	if gate.InAppBrowser(r.UserAgent()) {
		http.Redirect(w, r, gate.WithRedirect(gate.OpenInBrowserURL, r.URL.RequestURI()), http.StatusFound)
		return
	}

	target := auth.SanitizeReturnPath(r.URL.Query().Get("redirect"))
	if h.provider.Authenticated(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	h.render.Render(w, r, http.StatusOK, "login", struct {
		StartURL string
		Failed   bool
	}{
		StartURL: "/auth/start?redirect=" + url.QueryEscape(target),
		Failed:   r.URL.Query().Has("error"),
	})
}

// Start handles GET /auth/start?redirect=
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	if gate.InAppBrowser(r.UserAgent()) {
		http.Redirect(w, r, gate.WithRedirect(gate.OpenInBrowserURL, r.URL.RequestURI()), http.StatusFound)
		return
	}

	authURL, err := h.provider.Begin(r.URL.Query().Get("redirect"))
	if err != nil {
		slog.Error("failed to start login", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/callback?code=&state=
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		slog.Warn("identity provider returned an error", "error", providerErr, "description", q.Get("error_description"))
		http.Redirect(w, r, gate.LoginPath+"?error=provider", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, gate.LoginPath+"?error=code", http.StatusSeeOther)
		return
	}

	next, err := h.provider.ExchangeAuthCode(r.Context(), w, q.Get("state"), code)
	if err != nil {
		slog.Warn("login failed", "error", err)
		http.Redirect(w, r, gate.LoginPath+"?error=exchange", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.provider.SignOut(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
