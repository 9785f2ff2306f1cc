package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
type UserStore interface {
	// Create persists a new user and fills in ID and CreatedAt.
	// Returns ErrAlreadyExists when the username or email is taken.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByLogin matches the login string against username or email,
	// case-sensitively.
	FindByLogin(ctx context.Context, login string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}
