package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
)

const schemaVersion = 1

func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migrate")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return errors.Wrap(err, "read user_version")
	}

	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	stmts := []string{`
CREATE TABLE IF NOT EXISTS trackers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  header TEXT NOT NULL,
  created_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS postings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tracker_id TEXT NOT NULL REFERENCES trackers(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  job_type TEXT NOT NULL,
  experience_level TEXT NOT NULL,
  posted_date TEXT NOT NULL,
  url TEXT NOT NULL,
  description TEXT NOT NULL,
  status TEXT NOT NULL,
  application_date TEXT NOT NULL DEFAULT '',
  follow_up_date TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  extracted_date TEXT NOT NULL
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_tracker_url
ON postings(tracker_id, url);`, `
CREATE INDEX IF NOT EXISTS idx_postings_tracker_status
ON postings(tracker_id, status);`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return errors.Wrap(err, "set user_version")
	}

	return tx.Commit()
}
