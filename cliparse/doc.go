// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file can be loaded into the environment first:

	_ = cliparse.LoadEnvFile(".env")

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-t                 Database type (sqlite or postgres)
	-seed              Insert default countries and teams
	-deadline          Voting deadline
	-countries         Allowed country codes
	-gate-order        Gate rule order
	-session-secret    Session signing secret
	-oidc-issuer       OIDC issuer URL
	-base-url          Public base URL
	-dev-login         Sign in without an identity provider
	-selection-store   BoltDB file for wizard selections
	-ranking-refresh   Ranking refresh interval

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p (default 3318)
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t (default sqlite)
	SEED_DATA          → -seed
	VOTE_DEADLINE      → -deadline
	ALLOWED_COUNTRIES  → -countries (default KR)
	GATE_ORDER         → -gate-order (default closed,region,webview,auth)
	SESSION_SECRET     → -session-secret
	OIDC_ISSUER        → -oidc-issuer
	BASE_URL           → -base-url
	AUTH_DEV_MODE      → -dev-login
	SELECTION_STORE    → -selection-store
	RANKING_REFRESH    → -ranking-refresh (default 30s)

Environment only:

	GATE_REGION_ACTION  redirect (default) or reject
	FORCE_COUNTRY       Country signal override for testing
	OIDC_CLIENT_ID, OIDC_CLIENT_SECRET
	RESULTS_POLL        Results page refresh interval (default 100s)
	DEFAULT_LOCALE      ko (default) or en
	LOG_LEVEL           debug, info, warn, error
	CSRF_KEY            32-byte key; enables CSRF protection on forms
	CORS_ORIGINS        Comma-separated allowed origins

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - SESSION_SECRET must be provided
  - OIDC settings must be provided unless dev login is enabled

An unparsable VOTE_DEADLINE is not a configuration error: the gate treats it
as "never closed".
*/
package cliparse
