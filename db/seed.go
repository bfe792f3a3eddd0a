// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/quickly-vote/models"
)

//go:embed seed.json
var defaultSeed []byte

// SeedData is the reference data inserted by Seed
type SeedData struct {
	Countries []models.Country `json:"countries"`
	Teams     []models.Team    `json:"teams"`
}

// DefaultSeed returns the embedded countries and teams
func DefaultSeed() (SeedData, error) {
	var data SeedData
	if err := json.Unmarshal(defaultSeed, &data); err != nil {
		return SeedData{}, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return data, nil
}

// Seed inserts countries and teams. Existing ids are left untouched, so it
// is safe to run on every boot.
func Seed(conn *sql.DB, data SeedData) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range data.Countries {
		_, err := tx.Exec(`
			INSERT INTO countries (id, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Code, c.Name)
		if err != nil {
			return fmt.Errorf("failed to seed country %s: %w", c.Code, err)
		}
	}

	for _, t := range data.Teams {
		var logo *string
		if t.LogoURL != "" {
			logo = &t.LogoURL
		}
		_, err := tx.Exec(`
			INSERT INTO teams (id, name, country_id, logo_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, t.Name, t.CountryID, logo)
		if err != nil {
			return fmt.Errorf("failed to seed team %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}
