// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

// Champions returns the top team of every country, most votes first.
// Within a country the first row seen wins a tie. Countries with equal
// votes keep the order in which they first appear in rows.
func Champions(rows []models.RankingRow) []models.RankingRow {
	best := make(map[string]int, len(rows))
	var champions []models.RankingRow

	for _, r := range rows {
		i, ok := best[r.CountryCode]
		if !ok {
			best[r.CountryCode] = len(champions)
			champions = append(champions, r)
			continue
		}
		if r.Votes > champions[i].Votes {
			champions[i] = r
		}
	}

	sortByVotes(champions)
	return champions
}

// Remaining returns every row that is not a champion, most votes first
func Remaining(rows []models.RankingRow) []models.RankingRow {
	return remaining(rows, Champions(rows))
}

func remaining(rows, champions []models.RankingRow) []models.RankingRow {
	isChampion := make(map[int64]bool, len(champions))
	for _, c := range champions {
		isChampion[c.TeamID] = true
	}

	rest := make([]models.RankingRow, 0, len(rows)-len(champions))
	for _, r := range rows {
		if !isChampion[r.TeamID] {
			rest = append(rest, r)
		}
	}
	sortByVotes(rest)
	return rest
}

func sortByVotes(rows []models.RankingRow) {
	slices.SortStableFunc(rows, func(a, b models.RankingRow) int {
		switch {
		case a.Votes > b.Votes:
			return -1
		case a.Votes < b.Votes:
			return 1
		}
		return 0
	})
}

// Snapshot is one refresh of the rankings
type Snapshot struct {
	Rows      []models.RankingRow
	Champions []models.RankingRow
	Remaining []models.RankingRow
	FetchedAt time.Time
	// Err is set when the last refresh failed. Rows are then the ones of
	// the last successful refresh.
	Err error
}

// Source reads the overall rankings
type Source interface {
	ListOverallRankings(ctx context.Context) ([]models.RankingRow, error)
}

// Poller keeps the latest rankings snapshot. Readers never see a partly
// built snapshot.
type Poller struct {
	source  Source
	timeout time.Duration
	now     func() time.Time

	latest atomic.Pointer[Snapshot]
}

func NewPoller(source Source, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poller{source: source, timeout: timeout, now: time.Now}
}

// Refresh reads the rankings and swaps in a new snapshot
func (p *Poller) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.source.ListOverallRankings(ctx)
	if err != nil {
		err = fmt.Errorf("failed to refresh rankings: %w", err)
		prev := p.latest.Load()
		next := &Snapshot{Err: err}
		if prev != nil {
			next.Rows = prev.Rows
			next.Champions = prev.Champions
			next.Remaining = prev.Remaining
			next.FetchedAt = prev.FetchedAt
		}
		p.latest.Store(next)
		slog.Warn("rankings refresh failed", "error", err)
		return err
	}

	champions := Champions(rows)
	p.latest.Store(&Snapshot{
		Rows:      rows,
		Champions: champions,
		Remaining: remaining(rows, champions),
		FetchedAt: p.now(),
	})
	slog.Debug("rankings refreshed", "teams", len(rows), "champions", len(champions))
	return nil
}

// Latest returns the current snapshot, refreshing first when there is none
// yet.
func (p *Poller) Latest(ctx context.Context) *Snapshot {
	if s := p.latest.Load(); s != nil {
		return s
	}
	p.Refresh(ctx)
	return p.latest.Load()
}

// Run is the scheduled job body
func (p *Poller) Run() {
	p.Refresh(context.Background())
}
