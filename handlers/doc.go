// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for Quickly Vote.

# Handler Types

Each handler is a struct holding its dependencies, created by a constructor:

  - VoteHandler: the voting wizard (HTML)
  - ResultsHandler: the live rankings page (HTML)
  - AuthHandler: login page, OAuth start and callback, logout
  - PageHandler: intro, health and the gate's landing pages
  - APIHandler: the JSON API

HTML pages are html/template files embedded from templates/ and rendered
by a Renderer in the request's locale.

# Voting Wizard

The wizard step lives in the URL, the selection in a per-tab store keyed by
the qv_tab cookie:

	GET  /vote?step=intro|country|team|result|confirm
	POST /vote/country  country_id  -> 303 /vote?step=team
	POST /vote/team     team_id     -> 303 /vote?step=team
	POST /vote/submit   [team_id]   -> 303 /vote?step=confirm
	POST /vote/reset                -> 303 /vote?step=intro

Guards run before every render and answer with a 303 when they move the
wizard. A failed submission re-renders the team step with a message.

# Login

	GET  /login?redirect=       login page
	GET  /auth/start?redirect=  records state and nonce, redirects to the provider
	GET  /auth/callback         exchanges the code, sets qv_session
	POST /logout

In-app browsers are sent to /open-in-browser from /login and /auth/start.

# JSON API

	GET  /api/countries
	GET  /api/countries/{id}/teams
	GET  /api/votes/me
	POST /api/votes             {"team_id": 41}
	GET  /api/rankings

A repeated POST /api/votes answers 200 with the stored vote and
"reconciled": true.
*/
package handlers
