package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"vehiclescraper/internal/config"
	"vehiclescraper/internal/database"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/middleware"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so the database is always closed.
func run(args []string) int {
	_ = godotenv.Load()
	logger.Init()
	log := logger.ForComponent("migrate")

	fmt.Println("🗃️  Scrape History Database Tool")
	fmt.Println("================================")

	if len(args) < 1 {
		usage()
		return 1
	}

	command := args[0]
	ctx := context.Background()

	if command == "hash-admin-key" {
		return exitCode(hashAdminKey(args[1:]))
	}

	cfg := config.LoadConfig()
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open database")
		return 1
	}
	defer db.Close()

	switch command {
	case "init", "migrate":
		// Opening the database applies pending migrations.
		version, err := db.SchemaVersion(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read schema version")
			return 1
		}
		fmt.Printf("✅ Database at %s is at schema version %s\n", cfg.DatabasePath, version)
		return 0
	case "status":
		return exitCode(showStatus(ctx, db))
	case "prune":
		return exitCode(prune(ctx, db, args[1:]))
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		return 1
	}
}

func exitCode(err error) int {
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Println("Usage: go run cmd/migrate/main.go <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  init               - Create the database and apply the schema")
	fmt.Println("  migrate            - Apply pending migrations")
	fmt.Println("  status             - Show schema version and history counts")
	fmt.Println("  prune <days>       - Delete history older than <days> days")
	fmt.Println("  hash-admin-key <k> - Print the ADMIN_KEY_HASH value for key <k>")
}

func showStatus(ctx context.Context, db *database.Database) error {
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Printf("Schema version: %s (latest %s)\n", version, database.LatestVersion())

	fmt.Println("\nMigrations:")
	for _, m := range database.Migrations() {
		fmt.Printf("  %s  %s\n", m.Version, m.Description)
	}

	counts, err := db.OutcomeCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	fmt.Println("\nScrape history:")
	for _, outcome := range []string{database.OutcomeLive, database.OutcomeFallback, database.OutcomeError} {
		fmt.Printf("  %-9s %d\n", outcome, counts[outcome])
	}
	return nil
}

func prune(ctx context.Context, db *database.Database, args []string) error {
	if len(args) < 1 {
		return errors.New("prune needs the number of days to keep")
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days < 1 {
		return fmt.Errorf("invalid number of days: %s", args[0])
	}

	n, err := db.PruneOlderThan(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	fmt.Printf("✅ Deleted %d records older than %d days\n", n, days)
	return nil
}

func hashAdminKey(args []string) error {
	if len(args) < 1 || len(args[0]) < 12 {
		return errors.New("hash-admin-key needs a key of at least 12 characters")
	}
	hash, err := middleware.HashAdminKey(args[0])
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}
	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
	return nil
}
