// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(conn *sql.DB, dialect string) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	view := "CREATE OR REPLACE VIEW overall_rankings AS" + rankingsSelect
	if dialect == DialectSQLite {
		view = "CREATE VIEW IF NOT EXISTS overall_rankings AS" + rankingsSelect
	}
	if _, err := conn.Exec(view); err != nil {
		return fmt.Errorf("failed to create overall_rankings view: %w", err)
	}

	return nil
}

const schema = `
-- Reference data
CREATE TABLE IF NOT EXISTS countries (
    id INTEGER PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    country_id INTEGER NOT NULL REFERENCES countries(id) ON DELETE CASCADE,
    logo_url TEXT
);

CREATE INDEX IF NOT EXISTS idx_teams_country_id ON teams(country_id);

-- Users seen through the identity provider
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT,
    name TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_login_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Votes: one per user, forever
CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    team_id INTEGER NOT NULL REFERENCES teams(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ip_hash TEXT,
    user_agent TEXT
);

CREATE INDEX IF NOT EXISTS idx_votes_team_id ON votes(team_id);
`

const rankingsSelect = `
SELECT t.id AS team_id,
       t.name AS team_name,
       c.id AS country_id,
       c.code AS country_code,
       c.name AS country_name,
       COUNT(v.id) AS votes
FROM teams t
JOIN countries c ON c.id = t.country_id
LEFT JOIN votes v ON v.team_id = t.id
GROUP BY t.id, t.name, c.id, c.code, c.name
`
