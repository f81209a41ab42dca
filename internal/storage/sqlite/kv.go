// Package sqlite keeps the key-value slots in a local SQLite file, the
// on-device store of a single installation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const createSlotsSQL = `CREATE TABLE IF NOT EXISTS kv_slots (
	k TEXT PRIMARY KEY,
	v BLOB,
	updated_at INTEGER NOT NULL DEFAULT 0
)`

const upsertSlotSQL = `INSERT INTO kv_slots(k, v, updated_at) VALUES(?, ?, ?)
ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`

// KV serialises writers through a single connection plus a process mutex.
type KV struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

func Open(path string) (*KV, error) {
	if path == "" {
		path = "bookings.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createSlotsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv_slots: %w", err)
	}
	return &KV{db: db, path: path}, nil
}

func (s *KV) Close() error { return s.db.Close() }

func (s *KV) Path() string { return s.path }

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := getSlot(ctx, s.db, key)
	observe("get", err, start)
	return v, err
}

func (s *KV) Set(ctx context.Context, key string, val []byte) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, upsertSlotSQL, key, val, time.Now().UnixMilli())
	if err != nil {
		err = fmt.Errorf("upsert %s: %w", key, err)
	}
	observe("set", err, start)
	return err
}

func (s *KV) Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) (retErr error) {
	start := time.Now()
	defer func() { observe("update", retErr, start) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	cur, err := getSlot(ctx, tx, key)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if errors.Is(err, domain.ErrUnchanged) {
		return tx.Rollback()
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertSlotSQL, key, next, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSlot(ctx context.Context, q queryer, key string) ([]byte, error) {
	var v []byte
	err := q.QueryRowContext(ctx, `SELECT v FROM kv_slots WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return v, nil
}

func observe(op string, err error, start time.Time) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	observability.ObserveStore("sqlite", op, res, time.Since(start))
}
