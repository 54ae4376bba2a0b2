package matchup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/plated-app/plated/internal/tracing"
)

// PostgresHistory implements HistoryStore on the matchup_records table.
type PostgresHistory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresHistory creates a new Postgres-backed history store.
func NewPostgresHistory(db *sql.DB, logger *slog.Logger) *PostgresHistory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHistory{db: db, logger: logger}
}

// Append inserts a record. The table is append-only; there is no
// update path.
func (h *PostgresHistory) Append(ctx context.Context, r Record) error {
	query := `
	INSERT INTO matchup_records (id, user_id, item_a, item_b, winner_id, cuisine, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var winner sql.NullString
	if r.WinnerID != nil {
		winner = sql.NullString{String: *r.WinnerID, Valid: true}
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "matchup_records", tracing.DBOperationInsert)
	_, err := h.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.ItemA, r.ItemB, winner, r.Cuisine, r.CreatedAt)
	endSpan(err)
	if err != nil {
		return fmt.Errorf("failed to append matchup record: %w", err)
	}
	return nil
}

// Recent returns up to limit records for a user and cuisine, newest
// first. Served by the (user_id, cuisine, created_at desc) index.
func (h *PostgresHistory) Recent(ctx context.Context, userID, cuisine string, limit int) ([]Record, error) {
	query := `
	SELECT id, user_id, item_a, item_b, winner_id, cuisine, created_at
	FROM matchup_records
	WHERE user_id = $1 AND cuisine = $2
	ORDER BY created_at DESC
	LIMIT $3
	`
	ctx, endSpan := tracing.StartDBSpan(ctx, "matchup_records", tracing.DBOperationQuery)
	rows, err := h.db.QueryContext(ctx, query, userID, cuisine, limit)
	endSpan(err)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchup history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			h.logger.Warn("failed to close matchup rows", slog.String("error", err.Error()))
		}
	}()

	var out []Record
	for rows.Next() {
		var r Record
		var winner sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.ItemA, &r.ItemB, &winner, &r.Cuisine, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan matchup record: %w", err)
		}
		if winner.Valid {
			w := winner.String
			r.WinnerID = &w
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matchup records: %w", err)
	}
	return out, nil
}
