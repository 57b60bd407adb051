package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed schema.sql
var baseSchema string

// Migration is one schema change, applied in a transaction.
type Migration struct {
	Version     string
	Description string
	SQL         []string
}

// Migrations returns every migration in the order they apply.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     "1.0",
			Description: "Create scrape history",
			SQL:         []string{baseSchema},
		},
		{
			Version:     "1.1",
			Description: "Index scrape history by platform",
			SQL: []string{
				"CREATE INDEX IF NOT EXISTS idx_scrape_log_platform ON scrape_log(platform, created_at)",
			},
		},
		{
			Version:     "1.2",
			Description: "Index scrape history by outcome",
			SQL: []string{
				"CREATE INDEX IF NOT EXISTS idx_scrape_log_outcome ON scrape_log(outcome)",
			},
		},
	}
}

// LatestVersion is the schema version after all migrations.
func LatestVersion() string {
	m := Migrations()
	return m[len(m)-1].Version
}

// SchemaVersion returns the applied schema version, "0.0" for a new database.
func (d *Database) SchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM database_metadata WHERE key = 'schema_version'").Scan(&version)
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, sql.ErrNoRows):
		return "0.0", nil
	case isMissingTable(err):
		return "0.0", nil
	default:
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
}

// Migrate applies pending migrations and returns how many ran.
func (d *Database) Migrate(ctx context.Context) (int, error) {
	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range Migrations() {
		if !shouldApplyMigration(current, m.Version) {
			continue
		}
		if err := d.applyMigration(ctx, m); err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		current = m.Version
		applied++
	}
	return applied, nil
}

func (d *Database) applyMigration(ctx context.Context, m Migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.SQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", m.Description, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO database_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, m.Version, d.now())
	if err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return tx.Commit()
}

// shouldApplyMigration compares major.minor versions numerically.
func shouldApplyMigration(currentVersion, migrationVersion string) bool {
	var cMaj, cMin, mMaj, mMin int
	fmt.Sscanf(currentVersion, "%d.%d", &cMaj, &cMin)
	fmt.Sscanf(migrationVersion, "%d.%d", &mMaj, &mMin)
	if mMaj != cMaj {
		return mMaj > cMaj
	}
	return mMin > cMin
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
