// Package kvrepo implements the typed repositories on top of a domain.KV.
package kvrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hotel_booking/internal/domain"
)

// HistoryKey is the slot holding the booking list.
const HistoryKey = "booking_history"

// Bookings is the Record Store accessor: the whole ordered list is read and
// written as one JSON array.
type Bookings struct {
	kv  domain.KV
	key string
}

func NewBookings(kv domain.KV) *Bookings { return &Bookings{kv: kv, key: HistoryKey} }

func (b *Bookings) Load(ctx context.Context) ([]domain.BookingRecord, error) {
	raw, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Err: err}
	}
	rs, err := decodeRecords(raw)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Err: err}
	}
	return rs, nil
}

func (b *Bookings) Save(ctx context.Context, rs []domain.BookingRecord) error {
	raw, err := encodeRecords(rs)
	if err != nil {
		return &domain.StorageError{Op: "save", Err: err}
	}
	if err := b.kv.Set(ctx, b.key, raw); err != nil {
		return &domain.StorageError{Op: "save", Err: err}
	}
	return nil
}

func (b *Bookings) Update(ctx context.Context, fn func([]domain.BookingRecord) ([]domain.BookingRecord, error)) error {
	var fnErr error
	err := b.kv.Update(ctx, b.key, func(cur []byte) ([]byte, error) {
		fnErr = nil
		rs, err := decodeRecords(cur)
		if err != nil {
			return nil, err
		}
		next, err := fn(rs)
		if err != nil {
			fnErr = err
			return nil, err
		}
		return encodeRecords(next)
	})
	if err == nil {
		return nil
	}
	if fnErr != nil && errors.Is(err, fnErr) {
		return fnErr
	}
	return &domain.StorageError{Op: "update", Err: err}
}

func decodeRecords(raw []byte) ([]domain.BookingRecord, error) {
	if len(raw) == 0 {
		return []domain.BookingRecord{}, nil
	}
	var rs []domain.BookingRecord
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", HistoryKey, err)
	}
	if rs == nil {
		rs = []domain.BookingRecord{}
	}
	for i, r := range rs {
		if err := checkRecord(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return rs, nil
}

func encodeRecords(rs []domain.BookingRecord) ([]byte, error) {
	if rs == nil {
		rs = []domain.BookingRecord{}
	}
	for i, r := range rs {
		if err := checkRecord(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return json.Marshal(rs)
}

// checkRecord rejects records the resolver cannot reason about.
func checkRecord(r domain.BookingRecord) error {
	switch {
	case r.HotelID == "":
		return errors.New("missing hotelId")
	case r.CheckIn.IsZero() || r.CheckOut.IsZero():
		return errors.New("missing stay dates")
	case r.RoomNumber <= 0:
		return errors.New("missing roomNumber")
	case r.CreatedAt.IsZero():
		return errors.New("missing createdAt")
	}
	return nil
}
