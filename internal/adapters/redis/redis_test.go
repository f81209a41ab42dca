package redisad_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/catalog"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/kvrepo"
)

func newServer(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr
}

func TestKV_GetSetWithPrefix(t *testing.T) {
	mr := newServer(t)
	kv := redisad.NewKV(redisad.NewClient(mr.Addr(), "", 0), "hb:")
	ctx := context.Background()

	v, err := kv.Get(ctx, "booking_history")
	if err != nil || v != nil {
		t.Fatalf("missing key: %q, %v", v, err)
	}
	if err := kv.Set(ctx, "booking_history", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := mr.Get("hb:booking_history")
	if err != nil || raw != "[]" {
		t.Fatalf("stored under prefix: %q, %v", raw, err)
	}
}

func TestKV_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	mr := newServer(t)
	kv := redisad.NewKV(redisad.NewClient(mr.Addr(), "", 0), "")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := kv.Update(ctx, "n", func(cur []byte) ([]byte, error) {
				return append(cur, 'x'), nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	v, _ := kv.Get(ctx, "n")
	if len(v) != 20 {
		t.Fatalf("lost updates: %d", len(v))
	}
}

func TestKV_UpdateErrorLeavesValue(t *testing.T) {
	mr := newServer(t)
	kv := redisad.NewKV(redisad.NewClient(mr.Addr(), "", 0), "")
	ctx := context.Background()
	_ = kv.Set(ctx, "k", []byte("v1"))

	boom := errors.New("boom")
	if err := kv.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := kv.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, domain.ErrUnchanged }); err != nil {
		t.Fatalf("unchanged: %v", err)
	}
	v, _ := kv.Get(ctx, "k")
	if string(v) != "v1" {
		t.Fatalf("want v1, got %q", v)
	}
}

func TestCache_SetGetDelAndTTL(t *testing.T) {
	mr := newServer(t)
	c := redisad.New(redisad.NewClient(mr.Addr(), "", 0))
	ctx := context.Background()

	type sess struct {
		Email string `json:"email"`
	}
	if err := c.Set(ctx, "session:abc", sess{Email: "a@b.c"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got sess
	if ok, err := c.Get(ctx, "session:abc", &got); !ok || err != nil || got.Email != "a@b.c" {
		t.Fatalf("get: ok=%v err=%v got=%+v", ok, err, got)
	}

	mr.FastForward(61 * time.Second)
	if ok, _ := c.Get(ctx, "session:abc", &got); ok {
		t.Fatalf("expected expiry")
	}

	_ = c.Set(ctx, "x", 1, 60)
	_ = c.Del(ctx, "x")
	var n int
	if ok, _ := c.Get(ctx, "x", &n); ok {
		t.Fatalf("expected delete")
	}
}

func TestKV_ConcurrentBookingsNeverShareARoom(t *testing.T) {
	mr := newServer(t)
	kv := redisad.NewKV(redisad.NewClient(mr.Addr(), "", 0), "hb:")
	svc := app.NewBookingService(kvrepo.NewBookings(kv), catalog.Default(), app.DefaultPool())
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		rooms = map[int]int{}
		full  int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Create(ctx, domain.BookingInput{
				HotelID: "4", GuestName: "Guest", GuestEmail: "guest@example.com",
				CheckIn: domain.NewDate(2025, 8, 1), CheckOut: domain.NewDate(2025, 8, 3),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rooms[rec.RoomNumber]++
			case errors.Is(err, domain.ErrNoAvailability):
				full++
			default:
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(rooms) != 10 || full != 2 {
		t.Fatalf("want rooms 101..110 once each and 2 rejections, got %v and %d", rooms, full)
	}
	for r, n := range rooms {
		if n != 1 || r < 101 || r > 110 {
			t.Fatalf("room %d booked %d times", r, n)
		}
	}
}
