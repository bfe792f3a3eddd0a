// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-vote/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDuplicateVote   = errors.New("user has already voted")
	ErrUnknownTeam     = errors.New("unknown team")
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListCountries returns all countries ordered by id
func (s *Store) ListCountries(ctx context.Context) ([]models.Country, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name FROM countries ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	countries := []models.Country{}
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// ListTeams returns the teams of one country ordered by name
func (s *Store) ListTeams(ctx context.Context, countryID int64) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, country_id, logo_url
		FROM teams
		WHERE country_id = $1
		ORDER BY name
	`, countryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		var t models.Team
		var logo sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.CountryID, &logo); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		t.LogoURL = logo.String
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// GetMyVote returns the team the user voted for, if any.
// An empty user id has no vote.
func (s *Store) GetMyVote(ctx context.Context, userID string) (int64, bool, error) {
	if userID == "" {
		return 0, false, nil
	}

	var teamID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT team_id FROM votes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&teamID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query vote: %w", err)
	}
	return teamID, true, nil
}

// InsertVote records a vote. The UNIQUE constraint on votes.user_id is the
// only guard against a second vote; violations come back as ErrDuplicateVote.
func (s *Store) InsertVote(ctx context.Context, v models.NewVote) error {
	if v.UserID == "" {
		return ErrUnauthenticated
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)
	`, v.TeamID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to verify team: %w", err)
	}
	if !exists {
		return ErrUnknownTeam
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO votes (id, user_id, team_id, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), v.UserID, v.TeamID, nullString(v.IPHash), nullString(v.UserAgent))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// ListOverallRankings returns one row per team, most votes first
func (s *Store) ListOverallRankings(ctx context.Context) ([]models.RankingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, team_name, country_id, country_code, country_name, votes
		FROM overall_rankings
		ORDER BY votes DESC, team_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	out := []models.RankingRow{}
	for rows.Next() {
		var r models.RankingRow
		if err := rows.Scan(&r.TeamID, &r.TeamName, &r.CountryID, &r.CountryCode, &r.CountryName, &r.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertUser records a login
func (s *Store) UpsertUser(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return ErrUnauthenticated
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, last_login_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET email = excluded.email, name = excluded.name, last_login_at = excluded.last_login_at
	`, u.ID, nullString(u.Email), nullString(u.Name))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a duplicate-key error from
// either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
