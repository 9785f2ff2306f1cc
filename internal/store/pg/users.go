package pg

import (
	"context"
	"database/sql"
	"errors"

	"larrosacamiones.com/internal/auth"
)

// Users implements auth.UserStore over Postgres.
type Users struct {
	db *sql.DB
}

var _ auth.UserStore = (*Users)(nil)

const userColumns = `id, username, email, full_name, password_hash, is_active, is_admin, created_at, updated_at`

func (s *Users) Create(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users(username, email, full_name, password_hash, is_active, is_admin)
		values ($1,$2,$3,$4,$5,$6)
		returning id, created_at
	`, u.Username, u.Email, u.FullName, u.PasswordHash, u.IsActive, u.IsAdmin).
		Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return auth.ErrAlreadyExists
	}
	return err
}

func (s *Users) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id))
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1`, username))
}

func (s *Users) FindByLogin(ctx context.Context, login string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1 or email=$1`, login))
}

func (s *Users) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Users) scanOne(row *sql.Row) (*auth.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(r rowScanner) (*auth.User, error) {
	var u auth.User
	var updated sql.NullTime
	err := r.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &updated)
	if err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		u.UpdatedAt = &t
	}
	return &u, nil
}
