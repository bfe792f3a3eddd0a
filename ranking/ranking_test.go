// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-vote/models"
)

func row(teamID int64, code string, votes int64) models.RankingRow {
	return models.RankingRow{TeamID: teamID, TeamName: code + "-team", CountryCode: code, Votes: votes}
}

func teamIDs(rows []models.RankingRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.TeamID
	}
	return ids
}

func TestChampions(t *testing.T) {
	rows := []models.RankingRow{
		row(11, "NP", 3),
		row(41, "KR", 9),
		row(12, "NP", 7),
		row(42, "KR", 2),
		row(21, "LK", 0),
	}

	champions := Champions(rows)
	require.Equal(t, []int64{41, 12, 21}, teamIDs(champions))
}

func TestChampions_TieBreak(t *testing.T) {
	rows := []models.RankingRow{
		row(1, "A", 5),
		row(2, "A", 5),
		row(3, "B", 1),
	}

	champions := Champions(rows)
	require.Equal(t, []int64{1, 3}, teamIDs(champions))

	remaining := Remaining(rows)
	require.Equal(t, []int64{2}, teamIDs(remaining))
}

func TestChampions_EqualCountriesKeepFirstSeenOrder(t *testing.T) {
	rows := []models.RankingRow{
		row(1, "B", 4),
		row(2, "A", 4),
		row(3, "C", 4),
	}
	require.Equal(t, []int64{1, 2, 3}, teamIDs(Champions(rows)))
}

func TestRemaining_DisjointAndComplete(t *testing.T) {
	cases := map[string][]models.RankingRow{
		"empty":  nil,
		"single": {row(1, "A", 0)},
		"mixed": {
			row(1, "A", 5), row(2, "A", 5), row(3, "A", 9),
			row(4, "B", 0), row(5, "B", 0),
			row(6, "C", 1), row(7, "D", 12), row(8, "C", 3),
		},
	}

	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			champions := Champions(rows)
			remaining := Remaining(rows)

			seen := map[int64]bool{}
			for _, r := range champions {
				require.False(t, seen[r.TeamID])
				seen[r.TeamID] = true
			}
			for _, r := range remaining {
				require.False(t, seen[r.TeamID], "team %d is both champion and remaining", r.TeamID)
				seen[r.TeamID] = true
			}
			require.Len(t, seen, len(rows))

			require.True(t, slices.IsSortedFunc(remaining, func(a, b models.RankingRow) int {
				return int(b.Votes - a.Votes)
			}))
		})
	}
}

func TestChampions_DoesNotMutateInput(t *testing.T) {
	rows := []models.RankingRow{row(1, "A", 1), row(2, "A", 8), row(3, "B", 4)}
	before := slices.Clone(rows)

	Champions(rows)
	Remaining(rows)
	require.Equal(t, before, rows)
}

type fakeSource struct {
	rows []models.RankingRow
	err  error
}

func (f *fakeSource) ListOverallRankings(context.Context) ([]models.RankingRow, error) {
	return f.rows, f.err
}

func TestPoller(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{rows: []models.RankingRow{row(1, "A", 2), row(2, "A", 6)}}
	p := NewPoller(src, time.Second)

	first := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return first }

	snap := p.Latest(ctx)
	require.NoError(t, snap.Err)
	require.Equal(t, []int64{2}, teamIDs(snap.Champions))
	require.Equal(t, []int64{1}, teamIDs(snap.Remaining))
	require.Equal(t, first, snap.FetchedAt)

	// a failed refresh keeps the previous rows
	src.err = errors.New("connection refused")
	require.Error(t, p.Refresh(ctx))

	snap = p.Latest(ctx)
	require.ErrorContains(t, snap.Err, "connection refused")
	require.Len(t, snap.Rows, 2)
	require.Equal(t, []int64{2}, teamIDs(snap.Champions))
	require.Equal(t, first, snap.FetchedAt)

	// and the next good one clears the error
	src.err = nil
	src.rows = append(src.rows, row(3, "B", 1))
	p.Run()

	snap = p.Latest(ctx)
	require.NoError(t, snap.Err)
	require.Equal(t, []int64{2, 3}, teamIDs(snap.Champions))
}

func TestPoller_FirstRefreshFails(t *testing.T) {
	p := NewPoller(&fakeSource{err: errors.New("down")}, 0)

	snap := p.Latest(context.Background())
	require.Error(t, snap.Err)
	require.Empty(t, snap.Rows)
	require.True(t, snap.FetchedAt.IsZero())
}
