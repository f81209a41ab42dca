package app_test

import (
	"context"
	"sync"

	"hotel_booking/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu      sync.Mutex
	records []domain.BookingRecord
	err     error // returned by every call when set
	writes  int
}

func (f *fakeStore) Load(ctx context.Context) ([]domain.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.BookingRecord(nil), f.records...), nil
}

func (f *fakeStore) Save(ctx context.Context, rs []domain.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append([]domain.BookingRecord(nil), rs...)
	f.writes++
	return nil
}

func (f *fakeStore) Update(ctx context.Context, fn func([]domain.BookingRecord) ([]domain.BookingRecord, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	next, err := fn(append([]domain.BookingRecord(nil), f.records...))
	if err == domain.ErrUnchanged {
		return nil
	}
	if err != nil {
		return err
	}
	f.records = next
	f.writes++
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (f *fakeEvents) Publish(ctx context.Context, e domain.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
