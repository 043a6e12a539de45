package sqlite

import (
	"context"

	"github.com/rutapp/rut-server/internal/domain"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, uname, password_hash, email, avatar, intro, join_at, updated_at`

func scanUser(sc scanner) (*domain.User, error) {
	var (
		u                 domain.User
		joinAt, updatedAt string
	)
	if err := sc.Scan(&u.ID, &u.UName, &u.PasswordHash, &u.Email, &u.Avatar, &u.Intro, &joinAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.JoinAt, err = parseTime(joinAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Returns store.ErrAlreadyExists on a taken uname.
func (r *repo) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UName, u.PasswordHash, u.Email, u.Avatar, u.Intro,
		formatTime(u.JoinAt), formatTime(u.UpdatedAt),
	)
	return mapErr(err)
}

// GetUser retrieves a user by id.
func (r *repo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return u, mapErr(err)
}

// GetUserByUName retrieves a user by user name.
func (r *repo) GetUserByUName(ctx context.Context, uname string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uname = ?`, uname))
	return u, mapErr(err)
}

// UpdateUser writes the mutable profile fields and the password hash.
func (r *repo) UpdateUser(ctx context.Context, u *domain.User) error {
	return r.execOne(ctx, `
		UPDATE users SET password_hash = ?, email = ?, avatar = ?, intro = ?, updated_at = ?
		WHERE id = ?`,
		u.PasswordHash, u.Email, u.Avatar, u.Intro, formatTime(u.UpdatedAt), u.ID,
	)
}
