package db

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version int
	Name    string
	Applied bool
}

// migrationsFor returns the migration list of a driver, sorted by version
func migrationsFor(d Dialect) []Migration {
	source := postgresMigrations
	if d == DialectSQLite {
		source = sqliteMigrations
	}
	sorted := make([]Migration, len(source))
	copy(sorted, source)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return sorted
}

// Migrate runs all pending migrations for the driver
func Migrate(conn *sql.DB, d Dialect) error {
	if err := ensureMigrationsTable(conn); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := getCurrentVersion(conn)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrationsFor(d) {
		if m.Version <= currentVersion {
			continue
		}
		if err := runMigration(conn, d, m); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

func ensureMigrationsTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS interlinker_schema_version (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func getCurrentVersion(conn *sql.DB) (int, error) {
	var version int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM interlinker_schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func runMigration(conn *sql.DB, d Dialect, m Migration) error {
	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec(
		d.rebind("INSERT INTO interlinker_schema_version (version, name) VALUES ($1, $2)"),
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// Rollback rolls back the last applied migration
func Rollback(conn *sql.DB, d Dialect) error {
	currentVersion, err := getCurrentVersion(conn)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	var target *Migration
	for _, m := range migrationsFor(d) {
		if m.Version == currentVersion {
			target = &m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(target.Down); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	if _, err := tx.Exec(d.rebind("DELETE FROM interlinker_schema_version WHERE version = $1"), currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}

// GetMigrationStatus returns the applied state of every known migration
func GetMigrationStatus(conn *sql.DB, d Dialect) ([]MigrationStatus, error) {
	currentVersion, err := getCurrentVersion(conn)
	if err != nil {
		return nil, err
	}

	var status []MigrationStatus
	for _, m := range migrationsFor(d) {
		status = append(status, MigrationStatus{
			Version: m.Version,
			Name:    m.Name,
			Applied: m.Version <= currentVersion,
		})
	}
	return status, nil
}
