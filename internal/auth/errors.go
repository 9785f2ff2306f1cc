package auth

import "errors"

var (
	// ErrUnauthorized covers missing, malformed and expired tokens as well as
	// tokens whose subject no longer resolves to a stored user.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrInactiveAccount means credentials were fine but the account is
	// deactivated. Reported separately so the boundary can map it to 400.
	ErrInactiveAccount = errors.New("auth: inactive account")
	// ErrForbidden means the caller is authenticated but lacks the required
	// administrator capability.
	ErrForbidden = errors.New("auth: forbidden")

	// ErrInvalidToken indicates the token failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
)
