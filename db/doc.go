// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Two DATABASE_TYPE values are supported:

  - postgres: github.com/lib/pq, for deployments
  - sqlite: modernc.org/sqlite, for local runs and tests

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections are limited to one and run with foreign keys enabled.

# Schema Creation

CreateSchema initializes all required tables and the rankings view:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - countries: reference data, unique 2-letter code
  - teams: reference data, each team belongs to one country
  - users: identities seen at login
  - votes: one row per user (UNIQUE user_id)

The overall_rankings view counts votes per team, including teams with none:

	team_id | team_name | country_id | country_code | country_name | votes

It carries no champion flag; champions are derived by the ranking package.

# Relationships

	countries 1──* teams
	teams 1──* votes
	users 1──1 votes (by user_id)

# Seeding

Seed inserts reference data with ON CONFLICT (id) DO NOTHING. The embedded
default set is returned by DefaultSeed.
*/
package db
