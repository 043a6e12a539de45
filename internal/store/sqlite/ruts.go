package sqlite

import (
	"context"
	"fmt"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/store"
)

// rutColumns must match the scan order in scanRut.
const rutColumns = `r.id, r.title, r.url, r.content, r.uname, r.author_id, r.credential, r.logo,
	r.item_count, r.comment_count, r.star_count, r.create_at, r.renew_at`

func scanRut(sc scanner) (*domain.Rut, error) {
	var (
		rt                domain.Rut
		createAt, renewAt string
	)
	err := sc.Scan(
		&rt.ID, &rt.Title, &rt.URL, &rt.Content, &rt.UName, &rt.AuthorID, &rt.Credential, &rt.Logo,
		&rt.ItemCount, &rt.CommentCount, &rt.StarCount, &createAt, &renewAt,
	)
	if err != nil {
		return nil, err
	}

	if rt.CreateAt, err = parseTime(createAt); err != nil {
		return nil, err
	}
	if rt.RenewAt, err = parseTime(renewAt); err != nil {
		return nil, err
	}
	return &rt, nil
}

// CreateRut inserts an empty rut.
func (r *repo) CreateRut(ctx context.Context, rt *domain.Rut) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO ruts (id, title, url, content, uname, author_id, credential, logo, create_at, renew_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.Title, rt.URL, rt.Content, rt.UName, rt.AuthorID, rt.Credential, rt.Logo,
		formatTime(rt.CreateAt), formatTime(rt.RenewAt),
	)
	return mapErr(err)
}

// GetRut retrieves a rut by id.
func (r *repo) GetRut(ctx context.Context, id string) (*domain.Rut, error) {
	rt, err := scanRut(r.q.QueryRowContext(ctx, `SELECT `+rutColumns+` FROM ruts r WHERE r.id = ?`, id))
	return rt, mapErr(err)
}

// UpdateRut writes the descriptive fields and renew_at.
func (r *repo) UpdateRut(ctx context.Context, rt *domain.Rut) error {
	return r.execOne(ctx, `
		UPDATE ruts SET title = ?, url = ?, content = ?, author_id = ?, credential = ?, renew_at = ?
		WHERE id = ?`,
		rt.Title, rt.URL, rt.Content, rt.AuthorID, rt.Credential, formatTime(rt.RenewAt), rt.ID,
	)
}

// AdjustRut applies counter deltas, and optionally a new logo and renew_at,
// in one statement.
func (r *repo) AdjustRut(ctx context.Context, id string, d store.RutDelta) error {
	var renewAt any
	if !d.RenewAt.IsZero() {
		renewAt = formatTime(d.RenewAt)
	}
	return r.execOne(ctx, `
		UPDATE ruts SET
			item_count = item_count + ?,
			star_count = star_count + ?,
			logo = CASE WHEN ? = '' THEN logo ELSE ? END,
			renew_at = COALESCE(?, renew_at)
		WHERE id = ?`,
		d.ItemCount, d.StarCount, d.Logo, d.Logo, renewAt, id,
	)
}

// ListRuts runs a rut selector.
func (r *repo) ListRuts(ctx context.Context, q store.RutQuery) ([]*domain.Rut, error) {
	query, args, err := r.rutSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanAll(rows, scanRut)
}

func (r *repo) rutSQL(q store.RutQuery) (string, []any, error) {
	const base = `SELECT ` + rutColumns + ` FROM ruts r `

	switch q := q.(type) {
	case store.RutsIndex:
		limit, offset := store.Window(q.Page, r.pageSize)
		return base + `ORDER BY r.renew_at DESC, r.id LIMIT ? OFFSET ?`, []any{limit, offset}, nil

	case store.RutsByUser:
		limit, offset := store.Window(q.Page, r.pageSize)
		if q.Starred {
			return base + `JOIN starruts s ON s.rut_id = r.id
				WHERE s.uname = ? ORDER BY s.star_at DESC LIMIT ? OFFSET ?`,
				[]any{q.UName, limit, offset}, nil
		}
		return base + `WHERE r.uname = ? ORDER BY r.create_at DESC, r.id LIMIT ? OFFSET ?`,
			[]any{q.UName, limit, offset}, nil

	case store.RutsWithItem:
		limit, offset := store.Window(q.Page, r.pageSize)
		return base + `JOIN collects c ON c.rut_id = r.id
			WHERE c.item_id = ? ORDER BY c.collect_at DESC LIMIT ? OFFSET ?`,
			[]any{q.ItemID, limit, offset}, nil

	case store.RutsWithTag:
		limit, offset := store.Window(q.Page, r.pageSize)
		return base + `JOIN tagruts t ON t.rut_id = r.id
			WHERE t.tname = ? ORDER BY t.count DESC, r.renew_at DESC LIMIT ? OFFSET ?`,
			[]any{q.TName, limit, offset}, nil

	case store.RutsByTitle:
		pattern, err := likePattern(q.Pattern)
		if err != nil {
			return "", nil, err
		}
		return base + `WHERE fold(r.title) LIKE ? ESCAPE '\' ORDER BY r.star_count DESC, r.id LIMIT ?`,
			[]any{pattern, store.UnpagedLimit}, nil
	}

	return "", nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported rut selector %T", q))
}
