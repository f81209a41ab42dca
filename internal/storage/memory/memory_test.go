package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotel_booking/internal/domain"
)

func TestKV_UpdateIsAtomic(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = kv.Update(ctx, "n", func(cur []byte) ([]byte, error) {
				return append(cur, 'x'), nil
			})
		}()
	}
	wg.Wait()

	got, _ := kv.Get(ctx, "n")
	if len(got) != 50 {
		t.Fatalf("lost updates: got %d bytes", len(got))
	}
}

func TestKV_UpdateUnchangedAndError(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	_ = kv.Set(ctx, "k", []byte("v1"))

	if err := kv.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, domain.ErrUnchanged }); err != nil {
		t.Fatalf("unchanged should not error: %v", err)
	}
	boom := errors.New("boom")
	if err := kv.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("v2"), boom }); !errors.Is(err, boom) {
		t.Fatalf("want fn error, got %v", err)
	}
	got, _ := kv.Get(ctx, "k")
	if string(got) != "v1" {
		t.Fatalf("value changed on failed update: %q", got)
	}
}

func TestKV_GetReturnsCopy(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	_ = kv.Set(ctx, "k", []byte("abc"))
	b, _ := kv.Get(ctx, "k")
	b[0] = 'z'
	again, _ := kv.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value aliased: %q", again)
	}
}

func TestCache_TTL(t *testing.T) {
	c := NewCache()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "s", map[string]string{"email": "a@b.c"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out map[string]string
	if ok, err := c.Get(ctx, "s", &out); !ok || err != nil || out["email"] != "a@b.c" {
		t.Fatalf("expected hit, got ok=%v err=%v out=%v", ok, err, out)
	}

	now = now.Add(61 * time.Second)
	if ok, _ := c.Get(ctx, "s", &out); ok {
		t.Fatalf("expected expiry")
	}

	_ = c.Set(ctx, "d", 1, 0)
	_ = c.Del(ctx, "d")
	var n int
	if ok, _ := c.Get(ctx, "d", &n); ok {
		t.Fatalf("expected delete")
	}
}
