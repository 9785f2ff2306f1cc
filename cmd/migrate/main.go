package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"larrosacamiones.com/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("LARROSA_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "seeds", "Path to SQL seeds")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or LARROSA_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		applied, err := mgr.Up(ctx)
		fatalOn(err, "up")
		fmt.Printf("applied %d migration(s)\n", len(applied))
	case "down":
		name, err := mgr.Down(ctx)
		fatalOn(err, "down")
		fmt.Printf("rolled back %s\n", name)
	case "seed":
		applied, err := mgr.Seed(ctx)
		fatalOn(err, "seed")
		fmt.Printf("applied %d seed(s)\n", len(applied))
	case "status":
		history, err := mgr.Status(ctx)
		fatalOn(err, "status")
		for _, rec := range history {
			fmt.Printf("%s\t%s\n", rec.AppliedAt.Format(time.RFC3339), rec.Name)
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
}

func fatalOn(err error, cmd string) {
	if err != nil {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
}
