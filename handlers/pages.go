// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/wizard"
)

// PageHandler serves the intro page and the landing pages the gate sends
// users to.
type PageHandler struct {
	provider *auth.Provider
	closed   *gate.Closed
	render   *Renderer
	cfg      cliparse.Config
}

func NewPageHandler(provider *auth.Provider, closed *gate.Closed, render *Renderer, cfg cliparse.Config) *PageHandler {
	return &PageHandler{provider: provider, closed: closed, render: render, cfg: cfg}
}

// Health handles GET /health
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Intro handles GET /
func (h *PageHandler) Intro(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	next := wizard.StepURL("/vote", wizard.Country)
	if !h.provider.Authenticated(r) {
		next = gate.WithRedirect(gate.LoginPath, next)
	}
	h.render.Render(w, r, http.StatusOK, "intro", struct{ NextURL string }{next})
}

// Closed handles GET /closed
func (h *PageHandler) Closed(w http.ResponseWriter, r *http.Request) {
	var deadline time.Time
	if h.closed != nil {
		deadline, _ = h.closed.Deadline()
	}
	h.render.Render(w, r, http.StatusOK, "closed", struct{ Deadline time.Time }{deadline})
}

// NotAvailable handles GET /not-available
func (h *PageHandler) NotAvailable(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "not_available", nil)
}

// OpenInBrowser handles GET /open-in-browser?redirect=
func (h *PageHandler) OpenInBrowser(w http.ResponseWriter, r *http.Request) {
	target := auth.SanitizeReturnPath(r.URL.Query().Get("redirect"))
	h.render.Render(w, r, http.StatusOK, "open_in_browser", struct {
		Target      string
		AbsoluteURL string
	}{target, h.cfg.BaseURL + target})
}
