// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types.

# Reference Data

Countries and teams are immutable reference data:

	Country{ID, Code, Name}
	Team{ID, Name, CountryID, LogoURL}

Every team belongs to exactly one country.

# Votes

A Vote links a user to a team. The database allows at most one vote per
user; UserID, IPHash and UserAgent are never serialized to JSON.

NewVote carries the insert input, including the hashed client IP and user
agent recorded for auditing.

# Rankings

RankingRow is read-only aggregate data from the overall_rankings view:

	{team_id, team_name, country_id, country_code, country_name, votes}

Country champions are computed by the ranking package from these rows.

# Wizard

WizardState mirrors what the voting wizard shows:

	step        intro | country | team | result | confirm
	country_id  selected country, or null
	team_id     selected team, or null
	submitting  a vote insert is in flight
	message     transient, localized error text

Selection is the persisted part of that state, stored per browser tab.

# Error Response

All JSON errors share one shape:

	{"error": "Bad Request", "message": "team_id is required"}
*/
package models
