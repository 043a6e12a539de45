package sqlite

import (
	"context"

	"github.com/rutapp/rut-server/internal/domain"
)

// GetStarItem retrieves a user's star on an item.
func (r *repo) GetStarItem(ctx context.Context, uname, itemID string) (*domain.StarItem, error) {
	var (
		s       domain.StarItem
		flag    string
		starAt  string
		counted int
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, uname, item_id, star_at, note, flag, rate, done_counted
		FROM staritems WHERE uname = ? AND item_id = ?`, uname, itemID,
	).Scan(&s.ID, &s.UName, &s.ItemID, &starAt, &s.Note, &flag, &s.Rate, &counted)
	if err != nil {
		return nil, mapErr(err)
	}

	s.Flag = domain.StarFlag(flag)
	s.DoneCounted = counted != 0
	if s.StarAt, err = parseTime(starAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStarItem inserts a star. Returns store.ErrAlreadyExists if the user
// already starred the item.
func (r *repo) CreateStarItem(ctx context.Context, s *domain.StarItem) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO staritems (id, uname, item_id, star_at, note, flag, rate, done_counted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UName, s.ItemID, formatTime(s.StarAt), s.Note, string(s.Flag), s.Rate, boolToInt(s.DoneCounted),
	)
	return mapErr(err)
}

// UpdateStarItem writes flag, note, rate, done marker and star_at.
func (r *repo) UpdateStarItem(ctx context.Context, s *domain.StarItem) error {
	return r.execOne(ctx, `
		UPDATE staritems SET star_at = ?, note = ?, flag = ?, rate = ?, done_counted = ?
		WHERE id = ?`,
		formatTime(s.StarAt), s.Note, string(s.Flag), s.Rate, boolToInt(s.DoneCounted), s.ID,
	)
}

// DeleteStarItem removes a star on an item.
func (r *repo) DeleteStarItem(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM staritems WHERE id = ?`, id)
}

// GetStarTag retrieves a user's star on a tag.
func (r *repo) GetStarTag(ctx context.Context, uname, tname string) (*domain.StarTag, error) {
	var (
		s      domain.StarTag
		starAt string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, uname, tname, star_at, note FROM startags WHERE uname = ? AND tname = ?`, uname, tname,
	).Scan(&s.ID, &s.UName, &s.TName, &starAt, &s.Note)
	if err != nil {
		return nil, mapErr(err)
	}
	if s.StarAt, err = parseTime(starAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStarTag inserts a star on a tag.
func (r *repo) CreateStarTag(ctx context.Context, s *domain.StarTag) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO startags (id, uname, tname, star_at, note) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UName, s.TName, formatTime(s.StarAt), s.Note)
	return mapErr(err)
}

// DeleteStarTag removes a star on a tag.
func (r *repo) DeleteStarTag(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM startags WHERE id = ?`, id)
}

// CountStarTags returns how many tags a user has starred.
func (r *repo) CountStarTags(ctx context.Context, uname string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM startags WHERE uname = ?`, uname).Scan(&n)
	return n, mapErr(err)
}

// GetStarRut retrieves a user's star on a rut.
func (r *repo) GetStarRut(ctx context.Context, uname, rutID string) (*domain.StarRut, error) {
	var (
		s      domain.StarRut
		starAt string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, uname, rut_id, star_at, note FROM starruts WHERE uname = ? AND rut_id = ?`, uname, rutID,
	).Scan(&s.ID, &s.UName, &s.RutID, &starAt, &s.Note)
	if err != nil {
		return nil, mapErr(err)
	}
	if s.StarAt, err = parseTime(starAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStarRut inserts a star on a rut.
func (r *repo) CreateStarRut(ctx context.Context, s *domain.StarRut) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO starruts (id, uname, rut_id, star_at, note) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UName, s.RutID, formatTime(s.StarAt), s.Note)
	return mapErr(err)
}

// DeleteStarRut removes a star on a rut.
func (r *repo) DeleteStarRut(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM starruts WHERE id = ?`, id)
}
