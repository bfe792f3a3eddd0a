// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/store"
)

type ResultsHandler struct {
	rows     *store.Store
	provider *auth.Provider
	poller   *ranking.Poller
	render   *Renderer
	cfg      cliparse.Config
}

func NewResultsHandler(rows *store.Store, provider *auth.Provider, poller *ranking.Poller, render *Renderer, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{rows: rows, provider: provider, poller: poller, render: render, cfg: cfg}
}

// GetResults handles GET /results. The page reloads itself every
// RESULTS_POLL and always shows the latest snapshot.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	var myTeamID int64
	if u, err := h.provider.CurrentUser(r); err == nil {
		teamID, found, err := h.rows.GetMyVote(r.Context(), u.ID)
		if err != nil {
			slog.Warn("failed to look up own vote", "error", err, "user_id", u.ID)
		} else if found {
			myTeamID = teamID
		}
	}

	p := h.render.newPage(r, nil)
	p.Rankings = rankingsFor(r.Context(), h.poller, myTeamID)
	p.Refresh = int(h.cfg.ResultsPoll.Seconds())
	h.render.render(w, http.StatusOK, "results", p)
}

func rankingsFor(ctx context.Context, poller *ranking.Poller, myTeamID int64) *rankingsView {
	snap := poller.Latest(ctx)
	return &rankingsView{
		Champions: snap.Champions,
		Remaining: snap.Remaining,
		MyTeamID:  myTeamID,
		FetchedAt: snap.FetchedAt,
		Failed:    snap.Err != nil,
	}
}
