// Command createadmin bootstraps the administrator account. Registration
// over HTTP never grants admin, so the first admin comes from here.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"larrosacamiones.com/internal/auth"
	"larrosacamiones.com/internal/config"
	"larrosacamiones.com/internal/store/pg"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var (
		username = flag.String("username", cfg.Admin.Username, "admin username")
		email    = flag.String("email", cfg.Admin.Email, "admin email")
		password = flag.String("password", cfg.Admin.Password, "admin password")
		fullName = flag.String("full-name", "Administrator", "admin display name")
	)
	flag.Parse()

	if *password == "" {
		log.Fatal("missing password: provide via -password or LARROSA_ADMIN_PASSWORD")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("LARROSA_PG_DSN is required")
	}

	store, err := pg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	users := store.Users()
	if existing, err := users.FindByUsername(ctx, *username); err == nil {
		log.Printf("admin %q already exists (id=%d), nothing to do", existing.Username, existing.ID)
		return
	} else if !errors.Is(err, auth.ErrNotFound) {
		log.Fatalf("lookup admin: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &auth.User{
		Username:     *username,
		Email:        *email,
		FullName:     *fullName,
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			log.Printf("admin %q already exists, nothing to do", *username)
			return
		}
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin %q (id=%d)", admin.Username, admin.ID)
}
