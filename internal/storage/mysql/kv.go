package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// Repo stores key-value slots in the kv_slots table.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	var v []byte
	err := r.db.QueryRowContext(ctx, getSlotSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		observe("get", nil, start)
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("select %s: %w", key, err)
	}
	observe("get", err, start)
	return v, err
}

func (r *Repo) Set(ctx context.Context, key string, val []byte) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, upsertSlotSQL, key, val)
	if err != nil {
		err = fmt.Errorf("upsert %s: %w", key, err)
	}
	observe("set", err, start)
	return err
}

// Update locks the slot row for the duration of fn.
func (r *Repo) Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) (retErr error) {
	start := time.Now()
	defer func() { observe("update", retErr, start) }()

	if _, err := r.db.ExecContext(ctx, ensureSlotSQL, key); err != nil {
		return fmt.Errorf("ensure %s: %w", key, err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var cur []byte
	if err := tx.QueryRowContext(ctx, lockSlotSQL, key).Scan(&cur); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	next, err := fn(cur)
	if errors.Is(err, domain.ErrUnchanged) {
		return tx.Rollback()
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, updateSlotSQL, next, key); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func observe(op string, err error, start time.Time) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	observability.ObserveStore("mysql", op, res, time.Since(start))
}
