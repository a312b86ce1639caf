package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
	"github.com/cognicore/deptdir/pkg/deptdir/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS departments (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	info TEXT NOT NULL,
	emails TEXT NOT NULL,
	is_staten_island INTEGER NOT NULL DEFAULT 0,
	has_end_time INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_departments_position ON departments(position);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceDepartments swaps the directory contents in one transaction
func (s *sqliteStore) ReplaceDepartments(ctx context.Context, snap store.Snapshot, depts []ingest.Department) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM departments`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO departments (id, position, info, emails, is_staten_island, has_end_time)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	info=excluded.info,
	emails=excluded.emails,
	is_staten_island=excluded.is_staten_island,
	has_end_time=excluded.has_end_time;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seen := make(map[string]struct{}, len(depts))
	for i, d := range depts {
		if err := d.Validate(); err != nil {
			return err
		}
		emails := d.Emails
		if emails == nil {
			emails = []string{}
		}
		emailsJSON, err := json.Marshal(emails)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, i, d.Info, string(emailsJSON), d.IsStatenIsland, d.HasEndTime); err != nil {
			return fmt.Errorf("insert department %s: %w", d.ID, err)
		}
		seen[d.ID] = struct{}{}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (id, source, fetched_at, count)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	fetched_at=excluded.fetched_at,
	count=excluded.count;
`, snap.ID, snap.Source, snap.FetchedAt.UTC().Format(time.RFC3339Nano), len(seen))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListDepartments returns all departments in parse order
func (s *sqliteStore) ListDepartments(ctx context.Context) ([]ingest.Department, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, info, emails, is_staten_island, has_end_time
FROM departments
ORDER BY position ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depts := []ingest.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

// GetDepartment looks a department up by id
func (s *sqliteStore) GetDepartment(ctx context.Context, id string) (ingest.Department, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, info, emails, is_staten_island, has_end_time
FROM departments
WHERE id = ?;
`, id)

	d, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ingest.Department{}, false, nil
	}
	if err != nil {
		return ingest.Department{}, false, err
	}
	return d, true, nil
}

// LatestSnapshot returns the most recent snapshot, if any
func (s *sqliteStore) LatestSnapshot(ctx context.Context) (store.Snapshot, bool, error) {
	var snap store.Snapshot
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, fetched_at, count
FROM snapshots
ORDER BY id DESC
LIMIT 1;
`).Scan(&snap.ID, &snap.Source, &fetchedAt, &snap.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, err
	}

	snap.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
	}
	return snap, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDepartment(sc scanner) (ingest.Department, error) {
	var d ingest.Department
	var emailsJSON string
	if err := sc.Scan(&d.ID, &d.Info, &emailsJSON, &d.IsStatenIsland, &d.HasEndTime); err != nil {
		return ingest.Department{}, err
	}
	if err := json.Unmarshal([]byte(emailsJSON), &d.Emails); err != nil {
		return ingest.Department{}, fmt.Errorf("decode emails for %s: %w", d.ID, err)
	}
	return d, nil
}
