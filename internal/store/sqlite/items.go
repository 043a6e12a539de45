package sqlite

import (
	"context"
	"fmt"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/store"
)

// itemColumns must match the scan order in scanItem.
const itemColumns = `id, title, uiid, authors, pub_at, publisher, category, url, cover, edition, detail,
	rut_count, etc_count, done_count, vote, created_at, updated_at`

// prefixed item columns for joins.
const itemColumnsI = `i.id, i.title, i.uiid, i.authors, i.pub_at, i.publisher, i.category, i.url, i.cover, i.edition, i.detail,
	i.rut_count, i.etc_count, i.done_count, i.vote, i.created_at, i.updated_at`

func scanItem(sc scanner) (*domain.Item, error) {
	var (
		it                   domain.Item
		createdAt, updatedAt string
	)
	err := sc.Scan(
		&it.ID, &it.Title, &it.UIID, &it.Authors, &it.PubAt, &it.Publisher, &it.Category,
		&it.URL, &it.Cover, &it.Edition, &it.Detail,
		&it.RutCount, &it.EtcCount, &it.DoneCount, &it.Vote,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem inserts an item with zeroed counters.
// Returns store.ErrAlreadyExists when the uiid or url is taken.
func (r *repo) CreateItem(ctx context.Context, it *domain.Item) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO items (id, title, uiid, authors, pub_at, publisher, category, url, cover, edition, detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Title, it.UIID, it.Authors, it.PubAt, it.Publisher, it.Category,
		it.URL, it.Cover, it.Edition, it.Detail,
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	)
	return mapErr(err)
}

// GetItem retrieves an item by id.
func (r *repo) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	return it, mapErr(err)
}

// GetItemByUIID retrieves an item by exact external id.
func (r *repo) GetItemByUIID(ctx context.Context, uiid string) (*domain.Item, error) {
	if uiid == "" {
		return nil, store.ErrNotFound
	}
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE uiid = ?`, uiid))
	return it, mapErr(err)
}

// GetItemByURL retrieves an item by exact url.
func (r *repo) GetItemByURL(ctx context.Context, url string) (*domain.Item, error) {
	if url == "" {
		return nil, store.ErrNotFound
	}
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE url = ?`, url))
	return it, mapErr(err)
}

// UpdateItem writes the descriptive fields. Counters are never written here.
func (r *repo) UpdateItem(ctx context.Context, it *domain.Item) error {
	return r.execOne(ctx, `
		UPDATE items SET title = ?, uiid = ?, authors = ?, pub_at = ?, publisher = ?, category = ?,
			url = ?, cover = ?, edition = ?, detail = ?, updated_at = ?
		WHERE id = ?`,
		it.Title, it.UIID, it.Authors, it.PubAt, it.Publisher, it.Category,
		it.URL, it.Cover, it.Edition, it.Detail, formatTime(it.UpdatedAt), it.ID,
	)
}

// AdjustItem applies counter deltas in one statement.
func (r *repo) AdjustItem(ctx context.Context, id string, d store.ItemDelta) error {
	return r.execOne(ctx, `
		UPDATE items SET rut_count = rut_count + ?, done_count = done_count + ?
		WHERE id = ?`,
		d.RutCount, d.DoneCount, id,
	)
}

// ListItems runs an item selector.
func (r *repo) ListItems(ctx context.Context, q store.ItemQuery) ([]*domain.Item, error) {
	query, args, err := r.itemSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanAll(rows, scanItem)
}

func (r *repo) itemSQL(q store.ItemQuery) (string, []any, error) {
	const base = `SELECT ` + itemColumnsI + ` FROM items i `

	switch q := q.(type) {
	case store.ItemByID:
		return base + `WHERE i.id = ?`, []any{q.ID}, nil

	case store.ItemsByUIID:
		return fuzzyItems(base, "i.uiid", q.Pattern)

	case store.ItemsByTitle:
		return fuzzyItems(base, "i.title", q.Pattern)

	case store.ItemsByURL:
		return fuzzyItems(base, "i.url", q.Pattern)

	case store.ItemsInRut:
		return base + `JOIN collects c ON c.item_id = i.id
			WHERE c.rut_id = ? ORDER BY c.item_order`, []any{q.RutID}, nil

	case store.ItemsWithTag:
		limit, offset := store.Window(q.Page, r.pageSize)
		return base + `JOIN tagitems t ON t.item_id = i.id
			WHERE t.tname = ? ORDER BY t.count DESC, i.id LIMIT ? OFFSET ?`,
			[]any{q.TName, limit, offset}, nil

	case store.ItemsStarredBy:
		limit, offset := store.Window(q.Page, r.pageSize)
		query := base + `JOIN staritems s ON s.item_id = i.id WHERE s.uname = ?`
		args := []any{q.UName}
		if q.Flag != "" {
			query += ` AND s.flag = ?`
			args = append(args, string(q.Flag))
		}
		return query + ` ORDER BY s.star_at DESC LIMIT ? OFFSET ?`, append(args, limit, offset), nil

	case store.ItemsByKeyword:
		pattern, err := likePattern(q.Keyword)
		if err != nil {
			return "", nil, err
		}
		limit, offset := store.Window(q.Page, r.pageSize)
		switch q.From {
		case store.FromUser:
			return base + `JOIN staritems s ON s.item_id = i.id
				WHERE s.uname = ? AND fold(i.title) LIKE ? ESCAPE '\'
				ORDER BY s.star_at DESC LIMIT ? OFFSET ?`,
				[]any{q.SourceID, pattern, limit, offset}, nil
		case store.FromTag:
			return base + `JOIN tagitems t ON t.item_id = i.id
				WHERE t.tname = ? AND fold(i.title) LIKE ? ESCAPE '\'
				ORDER BY t.count DESC, i.id LIMIT ? OFFSET ?`,
				[]any{q.SourceID, pattern, limit, offset}, nil
		case store.FromNone:
			return base + `WHERE fold(i.title) LIKE ? ESCAPE '\'
				ORDER BY i.rut_count DESC, i.id LIMIT ? OFFSET ?`,
				[]any{pattern, limit, offset}, nil
		default:
			return "", nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown keyword source %q", q.From))
		}
	}

	return "", nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported item selector %T", q))
}

func fuzzyItems(base, column, raw string) (string, []any, error) {
	pattern, err := likePattern(raw)
	if err != nil {
		return "", nil, err
	}
	return base + `WHERE fold(` + column + `) LIKE ? ESCAPE '\' ORDER BY i.rut_count DESC, i.id LIMIT ?`,
		[]any{pattern, store.UnpagedLimit}, nil
}
