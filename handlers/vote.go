// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/selection"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/wizard"
)

// TabCookieName identifies a browser tab's wizard selection. It has no
// Max-Age so it ends with the browser session.
const TabCookieName = "qv_tab"

// VoteHandler serves the voting wizard. Every request rebuilds the wizard
// from ?step= and the tab's saved selection, runs its guards and either
// redirects (303) or renders the step.
type VoteHandler struct {
	rows       *store.Store
	selections selection.Store
	flights    *wizard.Flights
	provider   *auth.Provider
	poller     *ranking.Poller
	render     *Renderer
	cfg        cliparse.Config
}

func NewVoteHandler(rows *store.Store, selections selection.Store, provider *auth.Provider, poller *ranking.Poller, render *Renderer, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{
		rows:       rows,
		selections: selections,
		flights:    wizard.NewFlights(),
		provider:   provider,
		poller:     poller,
		render:     render,
		cfg:        cfg,
	}
}

type votePage struct {
	State     models.WizardState
	Countries []models.Country
	Teams     []models.Team
	Voted     *models.RankingRow
}

func (p *votePage) IsCountry(id int64) bool {
	return p.State.CountryID != nil && *p.State.CountryID == id
}

func (p *votePage) IsTeam(id int64) bool {
	return p.State.TeamID != nil && *p.State.TeamID == id
}

// tabID returns the tab cookie, setting a new one if missing
func (h *VoteHandler) tabID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(TabCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     TabCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *VoteHandler) machine(w http.ResponseWriter, r *http.Request, step wizard.Step, base *url.URL) (*wizard.Machine, *wizard.URLNavigator) {
	var userID string
	if u, err := h.provider.CurrentUser(r); err == nil {
		userID = u.ID
	}

	nav := wizard.NewURLNavigator(base)
	m := wizard.New(wizard.Config{
		TabID:      h.tabID(w, r),
		UserID:     userID,
		IPHash:     auth.HashIP(middleware.GetClientIP(r), h.cfg.SessionSecret),
		UserAgent:  r.UserAgent(),
		Rows:       h.rows,
		Selections: h.selections,
		Flights:    h.flights,
		Nav:        nav,
		Messages:   h.render.catalog.FromRequest(r),
	}, step)

	if err := m.Restore(); err != nil {
		slog.Warn("failed to restore selection", "error", err)
	}
	return m, nav
}

// formMachine builds the wizard for a POST; navigation targets /vote
func (h *VoteHandler) formMachine(w http.ResponseWriter, r *http.Request, step wizard.Step) (*wizard.Machine, *wizard.URLNavigator) {
	return h.machine(w, r, step, &url.URL{Path: "/vote"})
}

// GetVote handles GET /vote?step=
func (h *VoteHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	m, nav := h.machine(w, r, wizard.ParseStep(r.URL.Query().Get("step")), r.URL)

	if err := m.Enter(r.Context()); err != nil {
		slog.Error("failed to enter wizard step", "error", err)
		m.SetMessage(h.render.catalog.FromRequest(r).T("error.generic"))
		h.renderStep(w, r, m, http.StatusInternalServerError)
		return
	}
	if nav.Moved {
		http.Redirect(w, r, nav.Target, http.StatusSeeOther)
		return
	}

	h.renderStep(w, r, m, http.StatusOK)
}

// SelectCountry handles POST /vote/country
func (h *VoteHandler) SelectCountry(w http.ResponseWriter, r *http.Request) {
	m, nav := h.formMachine(w, r, wizard.Country)
	msg := h.render.catalog.FromRequest(r)

	countryID, err := strconv.ParseInt(r.PostFormValue("country_id"), 10, 64)
	if err == nil {
		err = m.SelectCountry(r.Context(), countryID)
	} else {
		err = wizard.ErrUnknownCountry
	}

	switch {
	case err == nil:
		m.Go(wizard.Team)
		http.Redirect(w, r, nav.Target, http.StatusSeeOther)
	case errors.Is(err, wizard.ErrUnknownCountry):
		m.SetMessage(msg.T("error.unknown_country"))
		h.renderStep(w, r, m, http.StatusBadRequest)
	default:
		slog.Error("failed to select country", "error", err)
		m.SetMessage(msg.T("error.generic"))
		h.renderStep(w, r, m, http.StatusInternalServerError)
	}
}

// SelectTeam handles POST /vote/team
func (h *VoteHandler) SelectTeam(w http.ResponseWriter, r *http.Request) {
	m, nav, ok := h.enterTeam(w, r)
	if !ok {
		return
	}

	if !h.selectTeam(w, r, m) {
		return
	}
	m.Go(wizard.Team)
	http.Redirect(w, r, nav.Target, http.StatusSeeOther)
}

// Submit handles POST /vote/submit. A team_id field selects the team first.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	m, nav, ok := h.enterTeam(w, r)
	if !ok {
		return
	}

	if r.PostFormValue("team_id") != "" && !h.selectTeam(w, r, m) {
		return
	}

	switch m.Submit(r.Context()) {
	case wizard.Submitted, wizard.Reconciled:
		http.Redirect(w, r, nav.Target, http.StatusSeeOther)
	case wizard.LoginRequired:
		h.renderStep(w, r, m, http.StatusUnauthorized)
	case wizard.Conflict:
		h.renderStep(w, r, m, http.StatusConflict)
	case wizard.Failed:
		h.renderStep(w, r, m, http.StatusInternalServerError)
	default:
		http.Redirect(w, r, wizard.StepURL("/vote", wizard.Team), http.StatusSeeOther)
	}
}

// Reset handles POST /vote/reset
func (h *VoteHandler) Reset(w http.ResponseWriter, r *http.Request) {
	m, nav := h.formMachine(w, r, wizard.Intro)
	m.Reset()
	http.Redirect(w, r, nav.Target, http.StatusSeeOther)
}

// enterTeam runs the team step guards for a form post. It reports false
// when it already answered the request.
func (h *VoteHandler) enterTeam(w http.ResponseWriter, r *http.Request) (*wizard.Machine, *wizard.URLNavigator, bool) {
	m, nav := h.formMachine(w, r, wizard.Team)

	if err := m.Enter(r.Context()); err != nil {
		slog.Error("failed to load teams", "error", err)
		m.SetMessage(h.render.catalog.FromRequest(r).T("error.generic"))
		h.renderStep(w, r, m, http.StatusInternalServerError)
		return nil, nil, false
	}
	if nav.Moved {
		http.Redirect(w, r, nav.Target, http.StatusSeeOther)
		return nil, nil, false
	}
	return m, nav, true
}

func (h *VoteHandler) selectTeam(w http.ResponseWriter, r *http.Request, m *wizard.Machine) bool {
	teamID, err := strconv.ParseInt(r.PostFormValue("team_id"), 10, 64)
	if err == nil {
		err = m.SelectTeam(teamID)
	}
	if err != nil {
		m.SetMessage(h.render.catalog.FromRequest(r).T("error.unknown_team"))
		h.renderStep(w, r, m, http.StatusBadRequest)
		return false
	}
	return true
}

func (h *VoteHandler) renderStep(w http.ResponseWriter, r *http.Request, m *wizard.Machine, status int) {
	state := m.State()
	data := &votePage{State: state}
	p := h.render.newPage(r, data)

	switch wizard.Step(state.Step) {
	case wizard.Country:
		countries, err := m.Countries(r.Context())
		if err != nil {
			slog.Error("failed to list countries", "error", err)
		}
		data.Countries = countries
	case wizard.Team:
		data.Teams = m.Teams()
	case wizard.Confirm:
		if state.TeamID != nil {
			data.Voted = h.findTeam(r, *state.TeamID)
		}
	case wizard.Result:
		var mine int64
		if state.TeamID != nil {
			mine = *state.TeamID
		}
		p.Rankings = rankingsFor(r.Context(), h.poller, mine)
		p.Refresh = int(h.cfg.ResultsPoll.Seconds())
	}

	h.render.render(w, status, "vote", p)
}

// findTeam looks a team up in the rankings, which carry team and country
// names together.
func (h *VoteHandler) findTeam(r *http.Request, teamID int64) *models.RankingRow {
	for _, row := range h.poller.Latest(r.Context()).Rows {
		if row.TeamID == teamID {
			return &row
		}
	}
	return nil
}
