package persist

import (
	"context"
	"time"
)

// ScoreRow is one high-score ledger entry. The simulation never reads or
// writes this table; the host records results at game-over, fire-and-forget.
type ScoreRow struct {
	ID              int64
	Name            string
	Score           int64
	DurationSeconds float64
	CreatedAt       time.Time
}

type ScoreRepo struct {
	db *DB
}

func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Insert records a finished session.
func (r *ScoreRepo) Insert(ctx context.Context, name string, score int64, duration float64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO highscores (name, score, duration_seconds)
		 VALUES ($1, $2, $3)`,
		name, score, duration,
	)
	return err
}

// TopN returns the best scores, highest first.
func (r *ScoreRepo) TopN(ctx context.Context, n int) ([]ScoreRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, score, duration_seconds, created_at
		 FROM highscores
		 ORDER BY score DESC, created_at ASC
		 LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Score, &row.DurationSeconds, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
