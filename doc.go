// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Vote server.

Quickly Vote lets signed-in users cast one vote for a team, picked in a
short wizard (intro, country, team, confirm), and shows live rankings with
one champion per country.

# Starting the Server

Settings come from flags, the environment, or a .env file in the working
directory:

	AUTH_DEV_MODE=true DATABASE_TYPE=sqlite DATABASE_URL=file:vote.db SEED_DATA=true go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -seed

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - SESSION_SECRET: key for signing session cookies
  - OIDC_ISSUER, OIDC_CLIENT_ID, OIDC_CLIENT_SECRET: identity provider,
    unless AUTH_DEV_MODE is set

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - VOTE_DEADLINE: voting closes at this time; unparsable means never
  - ALLOWED_COUNTRIES, GATE_ORDER, GATE_REGION_ACTION, FORCE_COUNTRY
  - SELECTION_STORE: BoltDB file for wizard selections
  - CSRF_KEY: 32-byte key; enables CSRF tokens on HTML forms
  - LOG_LEVEL, DEFAULT_LOCALE, CORS_ORIGINS

# Architecture

  - gate: ordered request rules (closed, region, webview, auth)
  - wizard: the voting wizard state machine
  - ranking: champions and remaining teams, refreshed in the background
  - handlers: HTML pages and the JSON API
  - router: routes and the middleware chain
  - store, db: votes, teams and users in SQL
  - auth: OIDC login and signed session cookies
  - selection, i18n, scheduler, middleware, cliparse, models

See package documentation for each component.
*/
package main
