package matchup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plated-app/plated/internal/elo"
	"github.com/plated-app/plated/internal/rating"
)

// Submission validation errors. Both are rejected before any read or
// write of Elo state.
var (
	// ErrInvalidWinner is returned when winner_id names neither matchup
	// item (nil means skip and is valid).
	ErrInvalidWinner = errors.New("winner must be one of the matchup items")
	// ErrSamePair is returned when a submission names the same item on
	// both sides.
	ErrSamePair = errors.New("matchup items must differ")
)

// Result is the outcome of a submitted matchup. WinnerRating and
// LoserRating are nil for skips.
type Result struct {
	Record       Record
	WinnerRating *elo.Rating
	LoserRating  *elo.Rating
}

// Service serves matchup pairs and applies submitted results.
type Service struct {
	aggregates rating.AggregateReader
	elos       elo.Store
	history    HistoryStore
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

// NewService creates a matchup service. logger and metrics may be nil.
func NewService(aggregates rating.AggregateReader, elos elo.Store, history HistoryStore, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		aggregates: aggregates,
		elos:       elos,
		history:    history,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// SetNow overrides the clock. Intended for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Next picks the next head-to-head pair for a user in a cuisine.
// Returns ErrInsufficientCandidates when the cuisine has fewer than two
// items.
func (s *Service) Next(ctx context.Context, userID, cuisine string) (Candidate, Candidate, error) {
	aggs, err := s.aggregates.Aggregates(ctx, cuisine)
	if err != nil {
		return Candidate{}, Candidate{}, fmt.Errorf("failed to read candidates: %w", err)
	}
	if len(aggs) < 2 {
		return Candidate{}, Candidate{}, ErrInsufficientCandidates
	}

	ids := make([]string, len(aggs))
	for i, a := range aggs {
		ids[i] = a.ItemID
	}
	ratings, err := s.elos.GetMany(ctx, ids)
	if err != nil {
		return Candidate{}, Candidate{}, fmt.Errorf("failed to read elo ratings: %w", err)
	}

	candidates := make([]Candidate, len(aggs))
	for i, a := range aggs {
		r := ratings[a.ItemID]
		candidates[i] = Candidate{
			ItemID:        a.ItemID,
			Tier:          a.Tier(),
			EloScore:      r.Score,
			MatchesPlayed: r.MatchesPlayed,
		}
	}

	recent, err := s.history.Recent(ctx, userID, cuisine, HistoryWindow)
	if err != nil {
		return Candidate{}, Candidate{}, fmt.Errorf("failed to read matchup history: %w", err)
	}

	a, b, err := Select(candidates, SeenPairs(recent))
	if err != nil {
		return Candidate{}, Candidate{}, err
	}

	if s.metrics != nil {
		s.metrics.IncServed()
	}
	s.logger.Debug("selected matchup",
		slog.String("user_id", userID),
		slog.String("cuisine", cuisine),
		slog.String("item_a", a.ItemID),
		slog.String("item_b", b.ItemID))
	return a, b, nil
}

// Submit records a matchup outcome. A nil winnerID is a skip: the
// record is logged for repeat-avoidance but Elo state is untouched. A
// decisive result applies the Elo update atomically for both items,
// then logs the record.
func (s *Service) Submit(ctx context.Context, userID, cuisine, itemA, itemB string, winnerID *string) (Result, error) {
	// Reject malformed input before touching any state.
	if itemA == itemB {
		return Result{}, ErrSamePair
	}
	if winnerID != nil && *winnerID != itemA && *winnerID != itemB {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidWinner, *winnerID)
	}

	record := Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemA:     itemA,
		ItemB:     itemB,
		WinnerID:  winnerID,
		Cuisine:   cuisine,
		CreatedAt: s.now(),
	}

	result := Result{Record: record}
	if winnerID != nil {
		loserID := itemA
		if *winnerID == itemA {
			loserID = itemB
		}

		start := time.Now()
		winner, loser, err := s.elos.ApplyMatch(ctx, *winnerID, loserID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to apply elo update: %w", err)
		}
		if s.metrics != nil {
			s.metrics.ObserveApplyDuration(time.Since(start).Seconds())
		}
		result.WinnerRating = &winner
		result.LoserRating = &loser
	}

	// History is advisory (repeat-avoidance only); Elo is the source of
	// truth, so the rating update lands before the log entry.
	if err := s.history.Append(ctx, record); err != nil {
		return Result{}, fmt.Errorf("failed to log matchup record: %w", err)
	}

	outcome := "decisive"
	if record.Skipped() {
		outcome = "skip"
	}
	if s.metrics != nil {
		s.metrics.IncSubmitted(outcome)
	}
	s.logger.Info("matchup submitted",
		slog.String("user_id", userID),
		slog.String("cuisine", cuisine),
		slog.String("outcome", outcome))
	return result, nil
}
