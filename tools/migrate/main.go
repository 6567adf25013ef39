package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/orgball2608/hashtag-discovery/internal/migrations"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/pressly/goose/v3"
)

const usage = "Usage: migrate [up|down|status|reset|create <name>]"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	command := os.Args[1]

	// Go migrations are compiled in, so new ones are written to the source tree.
	if command == "create" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <name>")
		}
		if err := goose.Create(nil, "internal/migrations", os.Args[2], "go"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := run(context.Background(), db, command); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, db *sql.DB, command string) error {
	if command == "up" {
		if err := migrations.Up(ctx, db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Println("Migrations applied successfully")
		return nil
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "down":
		if err := goose.DownContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		fmt.Println("Migration rollback successful")
	case "status":
		if err := goose.StatusContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
	case "reset":
		if err := goose.ResetContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
		fmt.Println("All migrations have been rolled back")
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	return nil
}
