package sqlite

import (
	"context"
	"fmt"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `t.tname, t.intro, t.logo, t.pname, t.item_count, t.rut_count, t.etc_count, t.star_count, t.vote`

func scanTag(sc scanner) (*domain.Tag, error) {
	var t domain.Tag
	err := sc.Scan(&t.TName, &t.Intro, &t.Logo, &t.PName,
		&t.ItemCount, &t.RutCount, &t.EtcCount, &t.StarCount, &t.Vote)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a tag with the given initial counters.
// vote is computed by the database.
func (r *repo) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tags (tname, intro, logo, pname, item_count, rut_count, etc_count, star_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TName, t.Intro, t.Logo, t.PName, t.ItemCount, t.RutCount, t.EtcCount, t.StarCount,
	)
	if err != nil {
		return mapErr(err)
	}
	t.Vote = domain.TagVote(t.RutCount, t.StarCount)
	return nil
}

// GetTag retrieves a tag by name.
func (r *repo) GetTag(ctx context.Context, tname string) (*domain.Tag, error) {
	t, err := scanTag(r.q.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.tname = ?`, tname))
	return t, mapErr(err)
}

// UpdateTag writes intro, logo and parent name.
func (r *repo) UpdateTag(ctx context.Context, t *domain.Tag) error {
	return r.execOne(ctx, `UPDATE tags SET intro = ?, logo = ?, pname = ? WHERE tname = ?`,
		t.Intro, t.Logo, t.PName, t.TName)
}

// AdjustTag applies counter deltas in one statement.
func (r *repo) AdjustTag(ctx context.Context, tname string, d store.TagDelta) error {
	return r.execOne(ctx, `
		UPDATE tags SET item_count = item_count + ?, rut_count = rut_count + ?, star_count = star_count + ?
		WHERE tname = ?`,
		d.ItemCount, d.RutCount, d.StarCount, tname,
	)
}

// ListTags runs a tag selector.
func (r *repo) ListTags(ctx context.Context, q store.TagQuery) ([]*domain.Tag, error) {
	var (
		query string
		args  []any
	)
	const base = `SELECT ` + tagColumns + ` FROM tags t `

	switch q := q.(type) {
	case store.TagsIndex:
		query = base + `ORDER BY t.vote DESC, t.tname LIMIT ?`
		args = []any{store.TagsIndexLimit}
	case store.TagsOnRut:
		query = base + `JOIN tagruts tr ON tr.tname = t.tname
			WHERE tr.rut_id = ? ORDER BY tr.count DESC, t.tname LIMIT ?`
		args = []any{q.RutID, store.TagsOnLimit}
	case store.TagsOnItem:
		query = base + `JOIN tagitems ti ON ti.tname = t.tname
			WHERE ti.item_id = ? ORDER BY ti.count DESC, t.tname LIMIT ?`
		args = []any{q.ItemID, store.TagsOnLimit}
	case store.TagsUnder:
		query = base + `WHERE t.pname = ? ORDER BY t.vote DESC, t.tname LIMIT ?`
		args = []any{q.PName, store.TagsUnderLimit}
	case store.TagsStarredBy:
		query = base + `JOIN startags st ON st.tname = t.tname
			WHERE st.uname = ? ORDER BY st.star_at DESC LIMIT ?`
		args = []any{q.UName, domain.MaxStarredTags}
	default:
		return nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported tag selector %T", q))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanAll(rows, scanTag)
}

// GetTagRut retrieves the association between a tag and a rut.
func (r *repo) GetTagRut(ctx context.Context, tname, rutID string) (*domain.TagRut, error) {
	var tr domain.TagRut
	err := r.q.QueryRowContext(ctx,
		`SELECT id, tname, rut_id, count FROM tagruts WHERE tname = ? AND rut_id = ?`, tname, rutID,
	).Scan(&tr.ID, &tr.TName, &tr.RutID, &tr.Count)
	if err != nil {
		return nil, mapErr(err)
	}
	return &tr, nil
}

// CreateTagRut inserts an association with its initial count.
func (r *repo) CreateTagRut(ctx context.Context, tr *domain.TagRut) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tagruts (id, tname, rut_id, count) VALUES (?, ?, ?, ?)`,
		tr.ID, tr.TName, tr.RutID, tr.Count)
	return mapErr(err)
}

// BumpTagRut increments an association's count.
func (r *repo) BumpTagRut(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE tagruts SET count = count + 1 WHERE id = ?`, id)
}

// DeleteTagRut removes the association between a tag and a rut.
func (r *repo) DeleteTagRut(ctx context.Context, tname, rutID string) error {
	return r.execOne(ctx, `DELETE FROM tagruts WHERE tname = ? AND rut_id = ?`, tname, rutID)
}

// GetTagItem retrieves the association between a tag and an item.
func (r *repo) GetTagItem(ctx context.Context, tname, itemID string) (*domain.TagItem, error) {
	var ti domain.TagItem
	err := r.q.QueryRowContext(ctx,
		`SELECT id, tname, item_id, count FROM tagitems WHERE tname = ? AND item_id = ?`, tname, itemID,
	).Scan(&ti.ID, &ti.TName, &ti.ItemID, &ti.Count)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ti, nil
}

// CreateTagItem inserts an association with its initial count.
func (r *repo) CreateTagItem(ctx context.Context, ti *domain.TagItem) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tagitems (id, tname, item_id, count) VALUES (?, ?, ?, ?)`,
		ti.ID, ti.TName, ti.ItemID, ti.Count)
	return mapErr(err)
}

// BumpTagItem increments an association's count.
func (r *repo) BumpTagItem(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE tagitems SET count = count + 1 WHERE id = ?`, id)
}

// DeleteTagItem removes the association between a tag and an item.
func (r *repo) DeleteTagItem(ctx context.Context, tname, itemID string) error {
	return r.execOne(ctx, `DELETE FROM tagitems WHERE tname = ? AND item_id = ?`, tname, itemID)
}
