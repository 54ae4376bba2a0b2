// Package api provides HTTP handlers for the Plated API.
package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/plated-app/plated/internal/middleware"
	"github.com/plated-app/plated/internal/ranking"
	"github.com/plated-app/plated/internal/rating"
	"github.com/plated-app/plated/internal/trending"
)

// RankingHandlers holds dependencies for the read-side cuisine
// endpoints: rankings and trending.
type RankingHandlers struct {
	rankings   *ranking.Service
	aggregates rating.AggregateReader
	now        func() time.Time
}

// NewRankingHandlers creates a new RankingHandlers instance.
func NewRankingHandlers(rankings *ranking.Service, aggregates rating.AggregateReader) *RankingHandlers {
	return &RankingHandlers{
		rankings:   rankings,
		aggregates: aggregates,
		now:        time.Now,
	}
}

// SetNow overrides the trending clock. Intended for tests.
func (h *RankingHandlers) SetNow(now func() time.Time) {
	h.now = now
}

// RankingEntry is one row of a ranked cuisine response.
type RankingEntry struct {
	ID             string  `json:"id"`
	Tier           string  `json:"tier"`
	ObservedScore  float64 `json:"observed_score"`
	BayesianScore  float64 `json:"bayesian_score"`
	CompositeScore float64 `json:"composite_score"`
	EloScore       float64 `json:"elo_score"`
	MatchesPlayed  int     `json:"matches_played"`
	RatingCount    int     `json:"rating_count"`
	Rank           int     `json:"rank"`
}

// RankingsResponse is the body of GET /cuisines/{cuisine}/rankings.
type RankingsResponse struct {
	Cuisine string         `json:"cuisine"`
	Items   []RankingEntry `json:"items"`
}

// TrendingEntry is one row of a trending cuisine response.
type TrendingEntry struct {
	ID          string  `json:"id"`
	Tier        string  `json:"tier"`
	Velocity    float64 `json:"velocity"`
	Rising      bool    `json:"rising"`
	RecentCount int     `json:"recent_count"`
	RatingCount int     `json:"rating_count"`
}

// TrendingResponse is the body of GET /cuisines/{cuisine}/trending.
type TrendingResponse struct {
	Cuisine string          `json:"cuisine"`
	Items   []TrendingEntry `json:"items"`
}

// Cuisines routes GET /cuisines/{cuisine}/rankings and
// GET /cuisines/{cuisine}/trending.
func (h *RankingHandlers) Cuisines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/cuisines/"), "/")
	if len(pathParts) != 2 || pathParts[0] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}
	cuisine := pathParts[0]

	switch pathParts[1] {
	case "rankings":
		h.rankingsForCuisine(w, r, cuisine)
	case "trending":
		h.trendingForCuisine(w, r, cuisine)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
	}
}

func (h *RankingHandlers) rankingsForCuisine(w http.ResponseWriter, r *http.Request, cuisine string) {
	entries, err := h.rankings.Rankings(r.Context(), cuisine)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute rankings")
		return
	}

	items := make([]RankingEntry, len(entries))
	for i, e := range entries {
		items[i] = RankingEntry{
			ID:             e.ItemID,
			Tier:           string(e.Tier),
			ObservedScore:  round3(e.Observed),
			BayesianScore:  round3(e.Bayesian),
			CompositeScore: round3(e.Composite),
			EloScore:       round1(e.EloScore),
			MatchesPlayed:  e.MatchesPlayed,
			RatingCount:    e.RatingCount,
			Rank:           e.Rank,
		}
	}

	writeJSON(w, r.Context(), http.StatusOK, RankingsResponse{Cuisine: cuisine, Items: items})
}

func (h *RankingHandlers) trendingForCuisine(w http.ResponseWriter, r *http.Request, cuisine string) {
	aggs, err := h.aggregates.Aggregates(r.Context(), cuisine)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute trending items")
		return
	}

	now := h.now()
	items := make([]TrendingEntry, len(aggs))
	for i, a := range aggs {
		v := trending.Velocity(a.RecentCount, a.RatingCount, a.CreatedAt, now)
		items[i] = TrendingEntry{
			ID:          a.ItemID,
			Tier:        string(a.Tier()),
			Velocity:    round3(v),
			Rising:      trending.Rising(v),
			RecentCount: a.RecentCount,
			RatingCount: a.RatingCount,
		}
	}

	// Hottest first; ties break by item id so output is stable.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Velocity != items[j].Velocity {
			return items[i].Velocity > items[j].Velocity
		}
		return items[i].ID < items[j].ID
	})

	writeJSON(w, r.Context(), http.StatusOK, TrendingResponse{Cuisine: cuisine, Items: items})
}
