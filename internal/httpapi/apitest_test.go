package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"larrosacamiones.com/internal/auth"
	"larrosacamiones.com/internal/images"
	"larrosacamiones.com/internal/vehicles"
)

type testEnv struct {
	api     *API
	handler http.Handler
	users   *auth.InMemoryUsers
	catalog *vehicles.InMemory
	tokens  *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := auth.NewInMemoryUsers()
	catalog := vehicles.NewInMemory()
	tokens, err := auth.NewTokenService("httpapi-test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	blobs, err := images.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	imageSvc := images.NewService(blobs, catalog, 10<<20, []string{"jpg", "jpeg", "png", "webp"})

	api := New(Options{
		Gate:    auth.NewGate(tokens, users),
		Tokens:  tokens,
		Users:   users,
		Catalog: catalog,
		Images:  imageSvc,
		Version: "test",
	})
	return &testEnv{
		api:     api,
		handler: api.Handler(),
		users:   users,
		catalog: catalog,
		tokens:  tokens,
	}
}

func (e *testEnv) addUser(t *testing.T, username, password string, active, admin bool) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &auth.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsActive:     active,
		IsAdmin:      admin,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testEnv) tokenFor(t *testing.T, username string) string {
	t.Helper()
	token, _, err := e.tokens.Issue(username)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func (e *testEnv) addVehicle(t *testing.T, brand, model, status string, featured bool) vehicles.Vehicle {
	t.Helper()
	v, err := e.catalog.Create(context.Background(), vehicles.Vehicle{
		Brand: brand, Model: model, Type: "tractor", TypeName: "Tractora",
		Year: 2020, Status: status, IsFeatured: featured,
	})
	if err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

// do performs a request against the full middleware chain.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
