package elo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/plated-app/plated/internal/tracing"
)

// maxApplyRetries bounds the retry loop on serialization conflicts.
const maxApplyRetries = 3

// Postgres error codes that indicate a retryable transaction conflict.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// ErrApplyContention is returned when ApplyMatch keeps losing
// transaction conflicts after maxApplyRetries attempts.
var ErrApplyContention = errors.New("elo update failed after retries")

// PostgresStore implements Store on the elo_ratings table.
//
// ApplyMatch runs in a single transaction: both rows are locked with
// SELECT ... FOR UPDATE in item-id order (so two overlapping matches on
// the same pair cannot deadlock), updated together, and committed as
// one unit. Serialization failures and deadlocks are retried.
type PostgresStore struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *Metrics
}

// NewPostgresStore creates a new Postgres-backed Elo store.
// metrics may be nil.
func NewPostgresStore(db *sql.DB, logger *slog.Logger, metrics *Metrics) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger, metrics: metrics}
}

// Get returns the rating for an item, lazily defaulting to 1500/0 when
// no row exists. A missing row is not an error.
func (s *PostgresStore) Get(ctx context.Context, itemID string) (Rating, error) {
	query := `
	SELECT item_id, score, matches_played, updated_at
	FROM elo_ratings WHERE item_id = $1
	`
	var r Rating
	err := s.db.QueryRowContext(ctx, query, itemID).Scan(&r.ItemID, &r.Score, &r.MatchesPlayed, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return NewRating(itemID), nil
	}
	if err != nil {
		return Rating{}, fmt.Errorf("failed to read elo rating: %w", err)
	}
	return r, nil
}

// GetMany returns ratings for all requested items with lazy defaults
// for ids that have no row yet.
func (s *PostgresStore) GetMany(ctx context.Context, itemIDs []string) (map[string]Rating, error) {
	out := make(map[string]Rating, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = NewRating(id)
	}
	if len(itemIDs) == 0 {
		return out, nil
	}

	query := `
	SELECT item_id, score, matches_played, updated_at
	FROM elo_ratings WHERE item_id = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to read elo ratings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close elo rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ItemID, &r.Score, &r.MatchesPlayed, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan elo rating: %w", err)
		}
		out[r.ItemID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate elo ratings: %w", err)
	}
	return out, nil
}

// ApplyMatch applies a decisive result atomically, retrying on
// transaction conflicts. The update either fully commits or leaves both
// rows untouched.
func (s *PostgresStore) ApplyMatch(ctx context.Context, winnerID, loserID string) (Rating, Rating, error) {
	if winnerID == loserID {
		return Rating{}, Rating{}, ErrSameItem
	}

	start := time.Now()
	ctx, endSpan := tracing.StartDBSpan(ctx, "elo_ratings", tracing.DBOperationUpdate)

	var lastErr error
	for attempt := 0; attempt < maxApplyRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			endSpan(err)
			return Rating{}, Rating{}, err
		}

		winner, loser, err := s.applyOnce(ctx, winnerID, loserID)
		if err == nil {
			if s.metrics != nil {
				s.metrics.IncUpdatesTotal()
				s.metrics.ObserveUpdateDuration(time.Since(start).Seconds())
			}
			endSpan(nil)
			return winner, loser, nil
		}
		if !isRetryable(err) {
			endSpan(err)
			return Rating{}, Rating{}, err
		}

		lastErr = err
		if s.metrics != nil {
			s.metrics.IncApplyRetries()
		}
		s.logger.Warn("retrying elo update after transaction conflict",
			slog.Int("attempt", attempt+1),
			slog.String("winner", winnerID),
			slog.String("loser", loserID),
			slog.String("error", err.Error()))
	}
	err := fmt.Errorf("%w: %v", ErrApplyContention, lastErr)
	endSpan(err)
	return Rating{}, Rating{}, err
}

func (s *PostgresStore) applyOnce(ctx context.Context, winnerID, loserID string) (Rating, Rating, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Rating{}, Rating{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Always attempt rollback on function exit (no-op after a commit).
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback elo transaction", slog.String("error", err.Error()))
		}
	}()

	// Lazily create both rows so FOR UPDATE has something to lock.
	insert := `
	INSERT INTO elo_ratings (item_id, score, matches_played, updated_at)
	VALUES ($1, $2, 0, now()), ($3, $2, 0, now())
	ON CONFLICT (item_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, insert, winnerID, InitialScore, loserID); err != nil {
		return Rating{}, Rating{}, fmt.Errorf("failed to ensure elo rows: %w", err)
	}

	// Lock both rows in item-id order regardless of who won, so
	// overlapping updates on the same pair always acquire in the same
	// order.
	lock := `
	SELECT item_id, score, matches_played, updated_at
	FROM elo_ratings WHERE item_id IN ($1, $2)
	ORDER BY item_id
	FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, lock, winnerID, loserID)
	if err != nil {
		return Rating{}, Rating{}, fmt.Errorf("failed to lock elo rows: %w", err)
	}

	byID := make(map[string]Rating, 2)
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ItemID, &r.Score, &r.MatchesPlayed, &r.UpdatedAt); err != nil {
			rows.Close()
			return Rating{}, Rating{}, fmt.Errorf("failed to scan locked elo row: %w", err)
		}
		byID[r.ItemID] = r
	}
	if err := rows.Close(); err != nil {
		return Rating{}, Rating{}, fmt.Errorf("failed to close locked elo rows: %w", err)
	}
	if len(byID) != 2 {
		return Rating{}, Rating{}, fmt.Errorf("expected 2 elo rows, locked %d", len(byID))
	}

	winner, loser := ApplyResult(byID[winnerID], byID[loserID], time.Now().UTC())

	update := `
	UPDATE elo_ratings SET score = $2, matches_played = $3, updated_at = $4
	WHERE item_id = $1
	`
	for _, r := range []Rating{winner, loser} {
		if _, err := tx.ExecContext(ctx, update, r.ItemID, r.Score, r.MatchesPlayed, r.UpdatedAt); err != nil {
			return Rating{}, Rating{}, fmt.Errorf("failed to update elo row %s: %w", r.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Rating{}, Rating{}, fmt.Errorf("failed to commit elo update: %w", err)
	}
	return winner, loser, nil
}

// isRetryable reports whether the error is a Postgres serialization
// failure or deadlock worth retrying.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected
	}
	return false
}
