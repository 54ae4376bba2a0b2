package rating

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/plated-app/plated/internal/tier"
	"github.com/plated-app/plated/internal/tracing"
)

// PostgresStore implements AggregateReader and Recorder backed by the
// items and rating_events tables. Each aggregate read is a single
// statement, so every row in a call reflects the same snapshot.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed rating store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// aggregateQuery derives tier counts, total and 7-day recent counts for
// items. The tier letter itself is never read from storage; only raw
// event counts are.
const aggregateQuery = `
	SELECT i.id, i.cuisine, i.created_at,
		COUNT(e.user_id) FILTER (WHERE e.tier = 'S'),
		COUNT(e.user_id) FILTER (WHERE e.tier = 'A'),
		COUNT(e.user_id) FILTER (WHERE e.tier = 'B'),
		COUNT(e.user_id) FILTER (WHERE e.tier = 'C'),
		COUNT(e.user_id) FILTER (WHERE e.tier = 'D'),
		COUNT(e.user_id) FILTER (WHERE e.tier = 'F'),
		COUNT(e.user_id) FILTER (WHERE e.created_at > now() - interval '7 days')
	FROM items i
	LEFT JOIN rating_events e ON e.item_id = i.id
`

// Aggregates returns aggregates for every item in a cuisine, ordered by
// item id.
func (s *PostgresStore) Aggregates(ctx context.Context, cuisine string) ([]Aggregate, error) {
	query := aggregateQuery + `
	WHERE i.cuisine = $1
	GROUP BY i.id, i.cuisine, i.created_at
	ORDER BY i.id
	`

	ctx, endSpan := tracing.StartDBSpan(ctx, "rating_events", tracing.DBOperationQuery)
	rows, err := s.db.QueryContext(ctx, query, cuisine)
	endSpan(err)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates for cuisine %s: %w", cuisine, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close aggregate rows", slog.String("error", err.Error()))
		}
	}()

	var out []Aggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregates: %w", err)
	}
	return out, nil
}

// Aggregate returns the aggregate for a single item.
func (s *PostgresStore) Aggregate(ctx context.Context, itemID string) (Aggregate, error) {
	query := aggregateQuery + `
	WHERE i.id = $1
	GROUP BY i.id, i.cuisine, i.created_at
	`

	row := s.db.QueryRowContext(ctx, query, itemID)
	agg, err := scanAggregate(row)
	if err == sql.ErrNoRows {
		return Aggregate{}, ErrUnknownItem
	}
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

// Record upserts a rating event. The (user_id, item_id) primary key
// makes a re-rating replace the previous one.
func (s *PostgresStore) Record(ctx context.Context, e Event) error {
	if !e.Tier.Valid() {
		return tier.ErrInvalidTier
	}

	query := `
	INSERT INTO rating_events (user_id, item_id, tier, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, item_id)
	DO UPDATE SET tier = EXCLUDED.tier, created_at = EXCLUDED.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, e.UserID, e.ItemID, string(e.Tier), e.CreatedAt); err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAggregate(sc scanner) (Aggregate, error) {
	var agg Aggregate
	var s, a, b, c, d, f int
	if err := sc.Scan(&agg.ItemID, &agg.Cuisine, &agg.CreatedAt,
		&s, &a, &b, &c, &d, &f, &agg.RecentCount); err != nil {
		if err == sql.ErrNoRows {
			return Aggregate{}, err
		}
		return Aggregate{}, fmt.Errorf("failed to scan aggregate: %w", err)
	}
	agg.Counts = tier.Counts{
		tier.TierS: s,
		tier.TierA: a,
		tier.TierB: b,
		tier.TierC: c,
		tier.TierD: d,
		tier.TierF: f,
	}
	agg.RatingCount = agg.Counts.Total()
	return agg, nil
}
