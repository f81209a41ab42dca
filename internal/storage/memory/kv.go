// Package memory holds process-local implementations of the storage ports,
// used by tests and by STORE_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

type KV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewKV() *KV { return &KV{data: map[string][]byte{}} }

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	observability.ObserveStore("memory", "get", "ok", time.Since(start))
	return clone(s.data[key]), nil
}

func (s *KV) Set(ctx context.Context, key string, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(val)
	observability.ObserveStore("memory", "set", "ok", time.Since(start))
	return nil
}

// Update holds the lock for the whole read-modify-write.
func (s *KV) Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(clone(s.data[key]))
	if errors.Is(err, domain.ErrUnchanged) {
		observability.ObserveStore("memory", "update", "ok", time.Since(start))
		return nil
	}
	if err != nil {
		observability.ObserveStore("memory", "update", "error", time.Since(start))
		return err
	}
	s.data[key] = clone(next)
	observability.ObserveStore("memory", "update", "ok", time.Since(start))
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
