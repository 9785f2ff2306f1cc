package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"larrosacamiones.com/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// requireUser authenticates the request and writes the error response on
// failure. Invalid credentials map to 401; a deactivated account to 400.
// On success the returned request carries the user and token in context so
// downstream audit entries are attributed.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (*auth.User, *http.Request, bool) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return nil, r, false
	}
	user, err := a.gate.Authenticate(r.Context(), token)
	if err != nil {
		writeAuthError(w, r, err)
		return nil, r, false
	}
	ctx := auth.ContextWithUser(r.Context(), user)
	ctx = auth.ContextWithToken(ctx, token)
	return user, r.WithContext(ctx), true
}

// requireAdmin additionally demands the administrator capability (403).
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.User, *http.Request, bool) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return nil, r, false
	}
	if _, err := auth.RequireAdministrator(user); err != nil {
		writeAuthError(w, r, err)
		return nil, r, false
	}
	return user, r, true
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "could not validate credentials")
	case errors.Is(err, auth.ErrInactiveAccount):
		writeError(w, r, http.StatusBadRequest, "inactive user")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "not enough permissions")
	default:
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}
