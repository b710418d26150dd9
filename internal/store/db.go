// Package store persists tracked postings in a SQLite file. One file holds any
// number of trackers; each tracker is an append-only, URL-deduplicated table of
// postings addressed by its store id.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"jobtrack/internal/logging"
)

var (
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrTrackerNotFound  = errors.New("tracker not found")
	ErrRowNotFound      = errors.New("row not found")
)

type DB struct {
	Pool *sql.DB
	log  *zap.Logger
	now  func() time.Time
}

func Open(path string, log *zap.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, unavailable(err, "create store dir")
		}
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable(err, "open store")
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, unavailable(err, "ping store")
	}

	db := &DB{Pool: pool, log: logging.Component(log, "store"), now: time.Now}
	if err := Migrate(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, unavailable(err, "migrate store")
	}
	db.log.Debug("store opened", zap.String("path", path))
	return db, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// unavailable marks err so callers can test errors.Is(err, ErrStoreUnavailable).
func unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	err = errors.Wrap(err, op)
	err = errors.Mark(err, ErrStoreUnavailable)
	return errors.WithHint(err, "check that the data directory is writable and no other process holds the database")
}
