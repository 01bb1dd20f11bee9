package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/airdate/internal/log"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteBlobStore stores blobs in a single SQLite table.
type SQLiteBlobStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ BlobStore = (*SQLiteBlobStore)(nil)

// OpenSQLite opens or creates the database at path with WAL journaling and a
// 5s busy timeout, and ensures the blobs table exists.
func OpenSQLite(path string) (*SQLiteBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	log.Debug(log.CatDB, "Opening database", "path", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer; keeps WAL checkpoints and the busy handler simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatDB, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.Exec(blobSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating blobs table: %w", err)
	}

	log.Info(log.CatDB, "Connected to database", "path", path)
	return &SQLiteBlobStore{db: db, path: path, now: time.Now}, nil
}

func (s *SQLiteBlobStore) Name() string { return "sqlite" }

// DB returns the underlying connection.
func (s *SQLiteBlobStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLiteBlobStore) Close() error { return s.db.Close() }

func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying blob: %w", err)
	}
	return value, nil
}

func (s *SQLiteBlobStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upserting blob: %w", err)
	}
	return nil
}

func (s *SQLiteBlobStore) Remove(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *SQLiteBlobStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM blobs WHERE key = ?`, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying blob timestamp: %w", err)
	}
	return time.Unix(ts, 0), nil
}
