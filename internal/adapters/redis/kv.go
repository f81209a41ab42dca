package redisad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const maxTxAttempts = 100

var ErrTxConflict = errors.New("redis: too many concurrent writers")

// KV keeps each slot in a plain string key under an optional prefix.
type KV struct {
	c      *redis.Client
	prefix string
}

func NewKV(c *redis.Client, prefix string) *KV { return &KV{c: c, prefix: prefix} }

func (s *KV) key(k string) string { return s.prefix + k }

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := s.c.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		observe("get", "ok", start)
		return nil, nil
	}
	if err != nil {
		observe("get", "error", start)
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	observe("get", "ok", start)
	return v, nil
}

func (s *KV) Set(ctx context.Context, key string, val []byte) error {
	start := time.Now()
	if err := s.c.Set(ctx, s.key(key), val, 0).Err(); err != nil {
		observe("set", "error", start)
		return fmt.Errorf("set %s: %w", key, err)
	}
	observe("set", "ok", start)
	return nil
}

// Update is an optimistic WATCH/MULTI transaction, retried when another
// writer touched the key between the read and EXEC.
func (s *KV) Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error {
	start := time.Now()
	k := s.key(key)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil {
			cur = nil
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxAttempts; i++ {
		err := s.c.Watch(ctx, txf, k)
		switch {
		case err == nil, errors.Is(err, domain.ErrUnchanged):
			observe("update", "ok", start)
			return nil
		case errors.Is(err, redis.TxFailedErr):
			observe("update", "conflict", start)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		default:
			observe("update", "error", start)
			return err
		}
	}
	return ErrTxConflict
}

func observe(op, result string, start time.Time) {
	observability.ObserveStore("redis", op, result, time.Since(start))
}
