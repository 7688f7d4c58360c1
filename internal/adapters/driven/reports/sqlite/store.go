// Package sqlite persists run reports to a local SQLite database so past
// runs can be inspected without access to the graph store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/teca-labs/arcveil/internal/adapters/driven/reports/sqlite/migrations"
	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is the SQLite-backed run-history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and if necessary creates) the run-history database at the
// given path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save records a completed run.
func (s *Store) Save(ctx context.Context, report *domain.RunReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, backup_skipped,
			anonymised, protected, titles_redacted, instantiations_redacted,
			titles_repaired, authors_redacted, write_failures,
			protected_field_anomalies, work_link_anomalies
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			anonymised = excluded.anonymised,
			protected = excluded.protected,
			titles_redacted = excluded.titles_redacted,
			instantiations_redacted = excluded.instantiations_redacted,
			titles_repaired = excluded.titles_repaired,
			authors_redacted = excluded.authors_redacted,
			write_failures = excluded.write_failures,
			protected_field_anomalies = excluded.protected_field_anomalies,
			work_link_anomalies = excluded.work_link_anomalies
	`, report.ID, report.StartedAt.UTC(), report.FinishedAt.UTC(), report.BackupSkipped,
		report.Anonymised, report.Protected, report.TitlesRedacted, report.InstantiationsRedacted,
		report.TitlesRepaired, report.AuthorsRedacted, report.WriteFailures,
		report.ProtectedFieldAnomalies, report.WorkLinkAnomalies)

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.RunReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, backup_skipped,
			anonymised, protected, titles_redacted, instantiations_redacted,
			titles_repaired, authors_redacted, write_failures,
			protected_field_anomalies, work_link_anomalies
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var reports []domain.RunReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RunReport
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.BackupSkipped,
			&r.Anonymised, &r.Protected, &r.TitlesRedacted, &r.InstantiationsRedacted,
			&r.TitlesRepaired, &r.AuthorsRedacted, &r.WriteFailures,
			&r.ProtectedFieldAnomalies, &r.WorkLinkAnomalies); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return reports, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
