package sqlite

import (
	"context"
	"database/sql"
	"iter"

	"github.com/rutapp/rut-server/internal/domain"
)

// StreamItems returns an iterator over every item, for reindexing.
func (s *Store) StreamItems(ctx context.Context) iter.Seq2[*domain.Item, error] {
	return stream(ctx, s.db, `SELECT `+itemColumns+` FROM items ORDER BY id`, scanItem)
}

// StreamRuts returns an iterator over every rut, for reindexing.
func (s *Store) StreamRuts(ctx context.Context) iter.Seq2[*domain.Rut, error] {
	return stream(ctx, s.db, `SELECT `+rutColumns+` FROM ruts r ORDER BY r.id`, scanRut)
}

func stream[T any](ctx context.Context, db *sql.DB, query string, scan func(scanner) (*T, error)) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			v, err := scan(rows)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(v, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
