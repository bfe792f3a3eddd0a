// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/store"
)

// APIHandler is the JSON surface over the same rows store the wizard uses
type APIHandler struct {
	rows     *store.Store
	provider *auth.Provider
	poller   *ranking.Poller
	cfg      cliparse.Config
}

func NewAPIHandler(rows *store.Store, provider *auth.Provider, poller *ranking.Poller, cfg cliparse.Config) *APIHandler {
	return &APIHandler{rows: rows, provider: provider, poller: poller, cfg: cfg}
}

// ListCountries handles GET /api/countries
func (h *APIHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.rows.ListCountries(r.Context())
	if err != nil {
		slog.Error("failed to list countries", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if countries == nil {
		countries = []models.Country{}
	}
	middleware.JSONResponse(w, http.StatusOK, countries)
}

// ListTeams handles GET /api/countries/{id}/teams
func (h *APIHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	countryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "country id must be a number")
		return
	}

	teams, err := h.rows.ListTeams(r.Context(), countryID)
	if err != nil {
		slog.Error("failed to list teams", "error", err, "country_id", countryID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	middleware.JSONResponse(w, http.StatusOK, teams)
}

// GetMyVote handles GET /api/votes/me
func (h *APIHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	user, err := h.provider.CurrentUser(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "login required")
		return
	}

	teamID, found, err := h.rows.GetMyVote(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to get vote", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var resp models.MyVoteResponse
	if found {
		resp.TeamID = &teamID
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SubmitVote handles POST /api/votes. A second vote is not an error: the
// response carries the existing vote with reconciled set.
func (h *APIHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	user, err := h.provider.CurrentUser(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "login required")
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TeamID <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "team_id is required")
		return
	}

	err = h.rows.InsertVote(r.Context(), models.NewVote{
		UserID:    user.ID,
		TeamID:    req.TeamID,
		IPHash:    auth.HashIP(middleware.GetClientIP(r), h.cfg.SessionSecret),
		UserAgent: r.UserAgent(),
	})

	switch {
	case err == nil:
		slog.Info("vote submitted", "user_id", user.ID, "team_id", req.TeamID)
		middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
			TeamID:  req.TeamID,
			Message: "vote recorded",
		})

	case errors.Is(err, store.ErrDuplicateVote):
		teamID, found, lookupErr := h.rows.GetMyVote(r.Context(), user.ID)
		if lookupErr != nil || !found {
			slog.Error("failed to read back existing vote", "error", lookupErr, "user_id", user.ID)
			middleware.ErrorResponse(w, http.StatusConflict, "already voted")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
			TeamID:     teamID,
			Reconciled: true,
			Message:    "already voted",
		})

	case errors.Is(err, store.ErrUnknownTeam):
		middleware.ErrorResponse(w, http.StatusBadRequest, "unknown team")

	case errors.Is(err, store.ErrUnauthenticated):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "login required")

	default:
		slog.Error("failed to insert vote", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
	}
}

// GetRankings handles GET /api/rankings
func (h *APIHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	snap := h.poller.Latest(r.Context())

	resp := models.RankingsResponse{
		Champions: snap.Champions,
		Remaining: snap.Remaining,
		FetchedAt: snap.FetchedAt,
	}
	if resp.Champions == nil {
		resp.Champions = []models.RankingRow{}
	}
	if resp.Remaining == nil {
		resp.Remaining = []models.RankingRow{}
	}
	if snap.Err != nil {
		resp.Error = "rankings refresh failed"
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
