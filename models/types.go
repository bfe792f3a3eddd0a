// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Wizard step constants
const (
	StepIntro   = "intro"
	StepCountry = "country"
	StepTeam    = "team"
	StepResult  = "result"
	StepConfirm = "confirm"
)

// Request types

type SubmitVoteRequest struct {
	TeamID int64 `json:"team_id"`
}

// Response types

type SubmitVoteResponse struct {
	TeamID     int64  `json:"team_id"`
	Reconciled bool   `json:"reconciled"`
	Message    string `json:"message"`
}

type MyVoteResponse struct {
	TeamID *int64 `json:"team_id"`
}

type RankingsResponse struct {
	Champions []RankingRow `json:"champions"`
	Remaining []RankingRow `json:"remaining"`
	FetchedAt time.Time    `json:"fetched_at"`
	Error     string       `json:"error,omitempty"`
}

// Domain types

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type Country struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CountryID int64  `json:"country_id"`
	LogoURL   string `json:"logo_url,omitempty"`
}

type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"` // Never expose in JSON
	TeamID    int64     `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
	IPHash    *string   `json:"-"`
	UserAgent *string   `json:"-"`
}

// NewVote is the input for a vote insert
type NewVote struct {
	UserID    string
	TeamID    int64
	IPHash    string
	UserAgent string
}

// RankingRow is one team's aggregate as read from the overall_rankings view.
// Country champions are derived from these rows, never stored.
type RankingRow struct {
	TeamID      int64  `json:"team_id"`
	TeamName    string `json:"team_name"`
	CountryID   int64  `json:"country_id"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Votes       int64  `json:"votes"`
}

// Selection is what a browser tab has picked so far
type Selection struct {
	CountryID *int64    `json:"country_id,omitempty"`
	TeamID    *int64    `json:"team_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WizardState struct {
	Step       string `json:"step"`
	CountryID  *int64 `json:"country_id"`
	TeamID     *int64 `json:"team_id"`
	Submitting bool   `json:"submitting"`
	Message    string `json:"message,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
