package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"larrosacamiones.com/internal/audit"
	"larrosacamiones.com/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *auth.User `json:"user"`
}

// handleLogin exchanges credentials for a bearer token. The login value
// matches either username or email.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	req, err := readCredentials(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := a.users.FindByLogin(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, r, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	if !user.IsActive {
		writeError(w, r, http.StatusBadRequest, "inactive user")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.Username)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"login":   req.Username,
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

// readCredentials accepts both a JSON body and a classic form post.
func readCredentials(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid form body")
		}
		req.Username = strings.TrimSpace(r.PostFormValue("username"))
		req.Password = r.PostFormValue("password")
		return req, nil
	}
	if err := decodeJSON(w, r, &req); err != nil {
		return req, err
	}
	req.Username = strings.TrimSpace(req.Username)
	return req, nil
}

// handleRegister creates a regular account. Administrator status is never
// granted here; bootstrap happens out of band.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		writeError(w, r, http.StatusBadRequest, "username and email are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := a.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			writeError(w, r, http.StatusBadRequest, "username or email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})

	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  user,
	})
}

// handleRefresh issues a fresh token for a still-valid session.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	token, expiresAt, err := a.tokens.Issue(user.Username)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

// handleLogout is informational: tokens stay valid until expiry, clients
// simply discard them.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"username": user.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "successfully logged out",
	})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	users, err := a.users.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
