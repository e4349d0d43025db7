package postgres

import (
	"context"

	"signstore/internal/repository"
)

// parentsExist verifies every referenced parent id in one query before
// a batch insert, returning a NotFoundError naming the first missing
// parent in input order.
func parentsExist(ctx context.Context, db DBTX, table, kind string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := db.Query(ctx, `SELECT id FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return wrapError("check "+table, err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return wrapError("check "+table, err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return wrapError("check "+table, err)
	}
	for _, id := range ids {
		if !found[id] {
			return &repository.NotFoundError{Kind: kind, ID: id}
		}
	}
	return nil
}
