package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/plated-app/plated/internal/matchup"
	"github.com/plated-app/plated/internal/middleware"
)

// MatchupHandlers holds dependencies for the head-to-head comparison
// endpoints. Both endpoints require an authenticated user.
type MatchupHandlers struct {
	service *matchup.Service
}

// NewMatchupHandlers creates a new MatchupHandlers instance.
func NewMatchupHandlers(service *matchup.Service) *MatchupHandlers {
	return &MatchupHandlers{service: service}
}

// MatchupItem is one side of a served matchup pair.
type MatchupItem struct {
	ID            string  `json:"id"`
	Tier          string  `json:"tier"`
	EloScore      float64 `json:"elo_score"`
	MatchesPlayed int     `json:"matches_played"`
}

// NextMatchupResponse is the body of GET /matchups/next.
type NextMatchupResponse struct {
	Cuisine string      `json:"cuisine"`
	ItemA   MatchupItem `json:"item_a"`
	ItemB   MatchupItem `json:"item_b"`
}

// SubmitMatchupRequest is the body of POST /matchups. A null winner_id
// records a skip.
type SubmitMatchupRequest struct {
	Cuisine  string  `json:"cuisine"`
	ItemA    string  `json:"item_a"`
	ItemB    string  `json:"item_b"`
	WinnerID *string `json:"winner_id"`
}

// SubmitMatchupResponse is the body returned after recording a matchup.
// WinnerElo and LoserElo are null on skips.
type SubmitMatchupResponse struct {
	MatchupID string   `json:"matchup_id"`
	Skipped   bool     `json:"skipped"`
	WinnerElo *float64 `json:"winner_elo"`
	LoserElo  *float64 `json:"loser_elo"`
}

// Next handles GET /matchups/next?cuisine= - serves the next pair for
// the authenticated user.
func (h *MatchupHandlers) Next(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	cuisine := strings.TrimSpace(r.URL.Query().Get("cuisine"))
	if cuisine == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "cuisine query parameter is required")
		return
	}

	a, b, err := h.service.Next(r.Context(), userID, cuisine)
	if err != nil {
		if errors.Is(err, matchup.ErrInsufficientCandidates) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInsufficientCandidates)
			WriteError(w, ctx, http.StatusConflict, ErrCodeInsufficientCandidates, "Not enough items in this cuisine for a matchup")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to select matchup")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, NextMatchupResponse{
		Cuisine: cuisine,
		ItemA:   toMatchupItem(a),
		ItemB:   toMatchupItem(b),
	})
}

// Submit handles POST /matchups - records a matchup outcome for the
// authenticated user.
func (h *MatchupHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req SubmitMatchupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.Cuisine) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "cuisine is required")
		return
	}
	if strings.TrimSpace(req.ItemA) == "" || strings.TrimSpace(req.ItemB) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "item_a and item_b are required")
		return
	}

	result, err := h.service.Submit(r.Context(), userID, req.Cuisine, req.ItemA, req.ItemB, req.WinnerID)
	if err != nil {
		switch {
		case errors.Is(err, matchup.ErrSamePair):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "item_a and item_b must differ")
		case errors.Is(err, matchup.ErrInvalidWinner):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidWinner)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidWinner, "winner_id must be item_a, item_b, or null")
		default:
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record matchup")
		}
		return
	}

	resp := SubmitMatchupResponse{
		MatchupID: result.Record.ID,
		Skipped:   result.Record.Skipped(),
	}
	if result.WinnerRating != nil {
		winnerElo := round1(result.WinnerRating.Score)
		loserElo := round1(result.LoserRating.Score)
		resp.WinnerElo = &winnerElo
		resp.LoserElo = &loserElo
	}

	writeJSON(w, r.Context(), http.StatusCreated, resp)
}

func toMatchupItem(c matchup.Candidate) MatchupItem {
	return MatchupItem{
		ID:            c.ItemID,
		Tier:          string(c.Tier),
		EloScore:      round1(c.EloScore),
		MatchesPlayed: c.MatchesPlayed,
	}
}
