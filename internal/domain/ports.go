package domain

import "context"

// KV is a persistent key-value slot store. Update is an atomic
// read-modify-write of one key: fn receives the current value (nil when the
// key is absent) and returns the value to store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
	Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error
}

// RecordStore holds the full ordered list of booking records.
type RecordStore interface {
	Load(ctx context.Context) ([]BookingRecord, error)
	Save(ctx context.Context, rs []BookingRecord) error
	// Update runs fn against a fresh copy of the list and persists its result
	// atomically. Errors returned by fn are passed through unchanged.
	Update(ctx context.Context, fn func([]BookingRecord) ([]BookingRecord, error)) error
}

type Catalog interface {
	All() []Hotel
	Get(id string) (Hotel, bool)
}

// RoomPool yields the room numbers eligible for assignment in a hotel.
type RoomPool interface {
	Rooms(hotelID string) []int
}

type UserRepository interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e BookingEvent) error
}
