package auth

import (
	"context"
	"errors"
	"strings"
)

// Gate resolves a bearer token to a stored user and enforces the active and
// administrator checks. It is per-request and stateless: token verification
// is a pure function of the token and the secret, and the only I/O is a
// single user lookup.
type Gate struct {
	tokens *TokenService
	users  UserStore
}

// NewGate wires a token service to a user store.
func NewGate(tokens *TokenService, users UserStore) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate resolves the token to an active user.
// Missing/invalid/expired tokens and unknown subjects report ErrUnauthorized;
// a resolved but deactivated user reports ErrInactiveAccount.
func (g *Gate) Authenticate(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := g.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

// AuthenticateOptional behaves like Authenticate but yields (nil, nil)
// instead of failing when the token is absent, rejected, or resolves to a
// missing or inactive user. Store infrastructure errors still propagate.
func (g *Gate) AuthenticateOptional(ctx context.Context, token string) (*User, error) {
	user, err := g.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInactiveAccount) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireActive passes an active user through unchanged.
func RequireActive(user *User) (*User, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

// RequireAdministrator passes an administrator through unchanged.
func RequireAdministrator(user *User) (*User, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}
