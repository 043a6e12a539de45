package sqlite

import (
	"context"
	"fmt"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/store"
)

// collectColumns must match the scan order in scanCollect.
const collectColumns = `id, rut_id, item_id, item_order, content, uname, collect_at`

func scanCollect(sc scanner) (*domain.Collect, error) {
	var (
		c         domain.Collect
		collectAt string
	)
	if err := sc.Scan(&c.ID, &c.RutID, &c.ItemID, &c.ItemOrder, &c.Content, &c.UName, &collectAt); err != nil {
		return nil, err
	}

	var err error
	if c.CollectAt, err = parseTime(collectAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCollect inserts a collect at c.ItemOrder. The caller computes the
// order; this layer does not check density.
// Returns store.ErrAlreadyExists if the item is already in the rut.
func (r *repo) CreateCollect(ctx context.Context, c *domain.Collect) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO collects (`+collectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RutID, c.ItemID, c.ItemOrder, c.Content, c.UName, formatTime(c.CollectAt),
	)
	return mapErr(err)
}

// GetCollect retrieves a collect by id.
func (r *repo) GetCollect(ctx context.Context, id string) (*domain.Collect, error) {
	c, err := scanCollect(r.q.QueryRowContext(ctx, `SELECT `+collectColumns+` FROM collects WHERE id = ?`, id))
	return c, mapErr(err)
}

// UpdateCollectContent replaces the annotation.
func (r *repo) UpdateCollectContent(ctx context.Context, id, content string) error {
	return r.execOne(ctx, `UPDATE collects SET content = ? WHERE id = ?`, content, id)
}

// DeleteCollect removes a collect.
func (r *repo) DeleteCollect(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM collects WHERE id = ?`, id)
}

// ShiftCollectsAfter decrements every order above the given one in a single
// statement.
func (r *repo) ShiftCollectsAfter(ctx context.Context, rutID string, order int) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE collects SET item_order = item_order - 1
		WHERE rut_id = ? AND item_order > ?`,
		rutID, order,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// ListCollects runs a collect selector.
func (r *repo) ListCollects(ctx context.Context, q store.CollectQuery) ([]*domain.Collect, error) {
	var (
		query string
		args  []any
	)
	const base = `SELECT ` + collectColumns + ` FROM collects `

	switch q := q.(type) {
	case store.CollectsInRut:
		query, args = base+`WHERE rut_id = ? ORDER BY item_order`, []any{q.RutID}
	case store.CollectsOfItem:
		limit, offset := store.Window(q.Page, r.pageSize)
		query = base + `WHERE item_id = ? ORDER BY collect_at DESC, id LIMIT ? OFFSET ?`
		args = []any{q.ItemID, limit, offset}
	case store.CollectsByUser:
		limit, offset := store.Window(q.Page, r.pageSize)
		query = base + `WHERE uname = ? ORDER BY collect_at DESC, id LIMIT ? OFFSET ?`
		args = []any{q.UName, limit, offset}
	default:
		return nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported collect selector %T", q))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanAll(rows, scanCollect)
}
