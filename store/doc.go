// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store reads and writes countries, teams, votes and users.

	s := store.New(conn)
	teams, err := s.ListTeams(ctx, countryID)

# Votes

InsertVote relies on the UNIQUE constraint on votes.user_id. Nothing else in
the application serializes voters, so a second vote from another tab or
device surfaces here as ErrDuplicateVote:

	err := s.InsertVote(ctx, models.NewVote{UserID: uid, TeamID: 41})
	switch {
	case errors.Is(err, store.ErrDuplicateVote):
		// already voted; read back with GetMyVote
	case errors.Is(err, store.ErrUnauthenticated):
		// no user id
	}

Duplicate keys are recognized from both drivers: SQLSTATE 23505 from
lib/pq and the UNIQUE/PRIMARY KEY constraint codes from modernc.org/sqlite.

# Rankings

ListOverallRankings reads the overall_rankings view, most votes first.
*/
package store
