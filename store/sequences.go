package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Sequence names. Each entity draws from its own counter row; the
// counters never move in lockstep with each other.
const (
	ProductSequence = "product_id"
	OrderSequence   = "order_id"
)

// NextSequence issues the next id from the named counter. The upsert is a
// single statement, so concurrent callers can never observe the same
// value. Ids start at 1 and are never reused; a crash after issuance
// leaves a gap, which is acceptable.
func NextSequence(ctx context.Context, db *sql.DB, name string) (int, error) {
	var seq int
	err := db.QueryRowContext(ctx,
		`INSERT INTO counters (name, seq) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		 RETURNING seq`,
		name,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return seq, nil
}
