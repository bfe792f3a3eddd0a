// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wizard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/selection"
	"github.com/danielhkuo/quickly-vote/store"
)

var (
	ErrUnknownCountry = errors.New("country is not in the country list")
	ErrUnknownTeam    = errors.New("team is not in the loaded team list")
)

// Rows is the part of the rows store the wizard uses
type Rows interface {
	ListCountries(ctx context.Context) ([]models.Country, error)
	ListTeams(ctx context.Context, countryID int64) ([]models.Team, error)
	GetMyVote(ctx context.Context, userID string) (int64, bool, error)
	InsertVote(ctx context.Context, v models.NewVote) error
}

// Messages translates message keys for the user
type Messages interface {
	T(key string) string
}

type Config struct {
	TabID      string
	UserID     string
	IPHash     string
	UserAgent  string
	Rows       Rows
	Selections selection.Store
	Flights    *Flights
	Nav        Navigator
	Messages   Messages
}

// Machine is the voting wizard for one browser tab. The step comes from the
// URL; country and team come from the tab's selection.
type Machine struct {
	cfg Config

	mu         sync.Mutex
	step       Step
	countryID  *int64
	teamID     *int64
	teams      []models.Team
	countries  []models.Country
	teamsGen   uint64
	checking   bool
	submitting bool
	message    string
}

func New(cfg Config, step Step) *Machine {
	if cfg.Flights == nil {
		cfg.Flights = NewFlights()
	}
	return &Machine{cfg: cfg, step: step}
}

// Restore loads the tab's saved selection
func (m *Machine) Restore() error {
	if m.cfg.Selections == nil || m.cfg.TabID == "" {
		return nil
	}
	sel, found, err := m.cfg.Selections.Get(m.cfg.TabID)
	if err != nil || !found {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.countryID = sel.CountryID
	m.teamID = sel.TeamID
	return nil
}

// Go moves to step
func (m *Machine) Go(step Step) {
	m.mu.Lock()
	m.step = step
	m.mu.Unlock()
	if m.cfg.Nav != nil {
		m.cfg.Nav.Go(step)
	}
}

// Enter runs every guard for the current step. It returns early once a
// guard has navigated away.
func (m *Machine) Enter(ctx context.Context) error {
	if m.GuardTeamStep() {
		return nil
	}

	step, countryID := m.current()

	if (step == Country || step == Team) && countryID != nil {
		if err := m.LoadTeams(ctx); err != nil {
			return err
		}
	}

	switch step {
	case Country, Team:
		m.CheckVoted(ctx)
	case Result:
		m.ResolveResult(ctx)
	case Confirm:
		m.guardConfirm(ctx)
	}
	return nil
}

// GuardTeamStep sends a team step without a country back to country.
// It reports whether it moved.
func (m *Machine) GuardTeamStep() bool {
	step, countryID := m.current()
	if step == Team && countryID == nil {
		m.Go(Country)
		return true
	}
	return false
}

// LoadTeams (re)loads the team list for the selected country and drops a
// selected team that is not in it. A load that finishes after the country
// changed again is discarded.
func (m *Machine) LoadTeams(ctx context.Context) error {
	m.mu.Lock()
	m.teamsGen++
	gen := m.teamsGen
	countryID := m.countryID
	m.mu.Unlock()

	if countryID == nil {
		m.mu.Lock()
		if gen == m.teamsGen {
			m.teams = nil
			m.teamID = nil
		}
		m.mu.Unlock()
		return nil
	}

	teams, err := m.cfg.Rows.ListTeams(ctx, *countryID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if gen != m.teamsGen {
		m.mu.Unlock()
		slog.Debug("discarding stale team list", "country_id", *countryID)
		return nil
	}
	m.teams = teams
	changed := false
	if m.teamID != nil && !containsTeam(teams, *m.teamID) {
		m.teamID = nil
		changed = true
	}
	m.mu.Unlock()

	if changed {
		m.save()
	}
	return nil
}

// CheckVoted looks up an existing vote. While it runs Checking reports
// true and nothing should be rendered. A found vote moves to confirm.
func (m *Machine) CheckVoted(ctx context.Context) {
	m.mu.Lock()
	m.checking = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.checking = false
		m.mu.Unlock()
	}()

	voted, found, err := m.cfg.Rows.GetMyVote(ctx, m.cfg.UserID)
	if err != nil {
		slog.Warn("vote check failed", "error", err, "user_id", m.cfg.UserID)
		return
	}
	if found {
		m.adoptTeam(voted)
		m.Go(Confirm)
	}
}

// ResolveResult fills in the user's own vote on the result step. Failures
// are ignored; a viewer may simply not have voted.
func (m *Machine) ResolveResult(ctx context.Context) {
	m.mu.Lock()
	known := m.teamID != nil
	m.mu.Unlock()
	if known {
		return
	}

	voted, found, err := m.cfg.Rows.GetMyVote(ctx, m.cfg.UserID)
	if err != nil || !found {
		return
	}
	m.adoptTeam(voted)
}

// guardConfirm keeps confirm for users who actually voted
func (m *Machine) guardConfirm(ctx context.Context) {
	voted, found, err := m.cfg.Rows.GetMyVote(ctx, m.cfg.UserID)
	if err != nil {
		return
	}
	if !found {
		m.Go(Country)
		return
	}
	m.adoptTeam(voted)
}

// Countries returns the country list, loading it once
func (m *Machine) Countries(ctx context.Context) ([]models.Country, error) {
	m.mu.Lock()
	cached := m.countries
	m.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	countries, err := m.cfg.Rows.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.countries = countries
	m.mu.Unlock()
	return countries, nil
}

// SelectCountry selects a country from the fetched list and reloads teams
func (m *Machine) SelectCountry(ctx context.Context, countryID int64) error {
	countries, err := m.Countries(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(countries, func(c models.Country) bool { return c.ID == countryID }) {
		return ErrUnknownCountry
	}

	m.mu.Lock()
	changed := m.countryID == nil || *m.countryID != countryID
	m.countryID = &countryID
	m.mu.Unlock()
	m.save()

	if changed {
		return m.LoadTeams(ctx)
	}
	return nil
}

// SelectTeam selects a team from the loaded team list
func (m *Machine) SelectTeam(teamID int64) error {
	m.mu.Lock()
	if !containsTeam(m.teams, teamID) {
		m.mu.Unlock()
		return ErrUnknownTeam
	}
	m.teamID = &teamID
	m.mu.Unlock()
	m.save()
	return nil
}

// Reset clears the selection and returns to the intro
func (m *Machine) Reset() {
	m.mu.Lock()
	m.countryID = nil
	m.teamID = nil
	m.teams = nil
	m.message = ""
	m.teamsGen++
	m.mu.Unlock()
	m.save()
	m.Go(Intro)
}

// State is a snapshot for rendering
func (m *Machine) State() models.WizardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.WizardState{
		Step:       string(m.step),
		CountryID:  m.countryID,
		TeamID:     m.teamID,
		Submitting: m.submitting || m.cfg.Flights.InFlight(m.cfg.TabID),
		Message:    m.message,
	}
}

// Teams returns the loaded team list
func (m *Machine) Teams() []models.Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teams
}

// Checking reports whether a has-voted check is pending
func (m *Machine) Checking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checking
}

// SetMessage sets the transient message shown with the current step
func (m *Machine) SetMessage(msg string) {
	m.mu.Lock()
	m.message = msg
	m.mu.Unlock()
}

func (m *Machine) current() (Step, *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step, m.countryID
}

func (m *Machine) adoptTeam(teamID int64) {
	m.mu.Lock()
	m.teamID = &teamID
	m.mu.Unlock()
	m.save()
}

func (m *Machine) save() {
	if m.cfg.Selections == nil || m.cfg.TabID == "" {
		return
	}

	m.mu.Lock()
	sel := models.Selection{CountryID: m.countryID, TeamID: m.teamID}
	m.mu.Unlock()

	var err error
	if sel.CountryID == nil && sel.TeamID == nil {
		err = m.cfg.Selections.Delete(m.cfg.TabID)
	} else {
		err = m.cfg.Selections.Set(m.cfg.TabID, sel)
	}
	if err != nil {
		slog.Error("failed to save selection", "error", err, "tab", m.cfg.TabID)
	}
}

func (m *Machine) translate(key string) string {
	if m.cfg.Messages == nil {
		return key
	}
	return m.cfg.Messages.T(key)
}

func containsTeam(teams []models.Team, id int64) bool {
	return slices.ContainsFunc(teams, func(t models.Team) bool { return t.ID == id })
}

// Submit outcomes
type Outcome int

const (
	Skipped Outcome = iota
	Submitted
	Reconciled
	LoginRequired
	Failed
	// Conflict: the store refused a second vote but the stored one could
	// not be read back
	Conflict
)

// Submit casts the vote for the selected team. It does nothing without a
// team or while another submission for the tab is running. A duplicate-key
// failure means the user already voted elsewhere; the existing vote is
// adopted and the wizard moves to confirm as if this one succeeded. If that
// vote cannot be read back the wizard stays put and reports Conflict.
func (m *Machine) Submit(ctx context.Context) Outcome {
	m.mu.Lock()
	if m.teamID == nil || m.submitting {
		m.mu.Unlock()
		return Skipped
	}
	if !m.cfg.Flights.Acquire(m.cfg.TabID) {
		m.mu.Unlock()
		return Skipped
	}
	teamID := *m.teamID
	m.submitting = true
	m.message = ""
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.submitting = false
		m.mu.Unlock()
		m.cfg.Flights.Release(m.cfg.TabID)
	}()

	err := m.cfg.Rows.InsertVote(ctx, models.NewVote{
		UserID:    m.cfg.UserID,
		TeamID:    teamID,
		IPHash:    m.cfg.IPHash,
		UserAgent: m.cfg.UserAgent,
	})

	switch {
	case err == nil:
		slog.Info("vote submitted", "user_id", m.cfg.UserID, "team_id", teamID)
		m.Go(Confirm)
		return Submitted

	case errors.Is(err, store.ErrDuplicateVote):
		voted, found, lookupErr := m.cfg.Rows.GetMyVote(ctx, m.cfg.UserID)
		if lookupErr != nil || !found {
			slog.Error("failed to read back existing vote", "error", lookupErr, "user_id", m.cfg.UserID)
			m.SetMessage(m.translate("error.already_voted"))
			return Conflict
		}
		m.adoptTeam(voted)
		slog.Info("duplicate vote reconciled", "user_id", m.cfg.UserID, "team_id", voted)
		m.Go(Confirm)
		return Reconciled

	case errors.Is(err, store.ErrUnauthenticated):
		m.SetMessage(m.translate("error.login_required"))
		return LoginRequired

	default:
		slog.Error("failed to submit vote", "error", err, "user_id", m.cfg.UserID, "team_id", teamID)
		m.SetMessage(m.translate("error.generic"))
		return Failed
	}
}
