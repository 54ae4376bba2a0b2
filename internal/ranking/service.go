package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plated-app/plated/internal/elo"
	"github.com/plated-app/plated/internal/rating"
	"github.com/plated-app/plated/internal/tracing"
)

// Service computes community rankings on demand. Each call reads a
// fresh aggregate snapshot and recomputes from scratch: there is no
// cached or incrementally maintained state, so recomputing from the
// same snapshot always yields identical output.
type Service struct {
	aggregates rating.AggregateReader
	elos       elo.Store
	logger     *slog.Logger
	metrics    *Metrics
}

// NewService creates a ranking service. logger and metrics may be nil.
func NewService(aggregates rating.AggregateReader, elos elo.Store, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		aggregates: aggregates,
		elos:       elos,
		logger:     logger,
		metrics:    metrics,
	}
}

// Rankings returns the full ranked list for a cuisine. The cuisine is
// the shrinkage group: its prior is the mean observed score over rated
// items in the cuisine, falling back to the neutral constant when the
// cuisine has no rated items.
func (s *Service) Rankings(ctx context.Context, cuisine string) ([]Entry, error) {
	ctx, endSpan := tracing.StartSpan(ctx, "compute_rankings")
	entries, err := s.rankings(ctx, cuisine)
	endSpan(err)
	return entries, err
}

func (s *Service) rankings(ctx context.Context, cuisine string) ([]Entry, error) {
	start := time.Now()

	aggs, err := s.aggregates.Aggregates(ctx, cuisine)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregates: %w", err)
	}

	itemIDs := make([]string, len(aggs))
	for i, a := range aggs {
		itemIDs[i] = a.ItemID
	}
	ratings, err := s.elos.GetMany(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read elo ratings: %w", err)
	}

	// Cuisine prior over rated items only.
	var rated []float64
	for _, a := range aggs {
		if a.RatingCount > 0 {
			rated = append(rated, a.Observed())
		}
	}
	groupMean := GroupMean(rated)

	entries := make([]Entry, len(aggs))
	for i, a := range aggs {
		r := ratings[a.ItemID]
		observed := a.Observed()
		bayesian := Shrink(observed, a.RatingCount, groupMean)
		entries[i] = Entry{
			ItemID:        a.ItemID,
			Tier:          a.Tier(),
			Observed:      observed,
			Bayesian:      bayesian,
			Composite:     Composite(bayesian, r.Score, r.MatchesPlayed),
			EloScore:      r.Score,
			MatchesPlayed: r.MatchesPlayed,
			RatingCount:   a.RatingCount,
		}
	}

	ranked := Rank(entries)

	if s.metrics != nil {
		s.metrics.IncRankingsComputed()
		s.metrics.ObserveComputeDuration(time.Since(start).Seconds())
	}
	s.logger.Debug("computed rankings",
		slog.String("cuisine", cuisine),
		slog.Int("items", len(ranked)),
		slog.Float64("group_mean", groupMean))
	return ranked, nil
}
