// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gate decides, before routing, whether a request may reach a page.

# Rules

The gate is an ordered list of rules. Each rule either has no opinion or
returns a Decision (pass, redirect, or reject); the first opinion wins.

	always-allowed  login, signup, auth/*, closed, not-available,
	                open-in-browser, health, OPTIONS, static assets → pass
	closed          now >= VOTE_DEADLINE → /closed
	region          country signal outside ALLOWED_COUNTRIES → /not-available
	                (or 404 with GATE_REGION_ACTION=reject)
	webview         in-app browser on /vote or /results
	                → /open-in-browser?redirect=<path+query>
	auth            /vote or /results without a session
	                → /login?redirect=<path+query>

always-allowed is fixed first. The rest run in GATE_ORDER order, by default:

	closed,region,webview,auth

Every path may carry a locale prefix (/en/vote).

# Fail-Open

  - An empty or unparsable deadline never closes voting.
  - A missing country signal (or Cloudflare's "XX") is allowed.
  - An empty or odd user agent is not an in-app browser.

# Country Signal

FORCE_COUNTRY, then X-Vercel-IP-Country, then CF-IPCountry.

# Usage

	g, err := gate.New(cfg.GateOrder, gate.Options{
		Deadline:         cfg.VoteDeadline,
		AllowedCountries: cfg.AllowedCountries,
		RegionAction:     cfg.RegionAction,
		Authenticated:    provider.Authenticated,
	})
	handler = g.Middleware(handler)
*/
package gate
