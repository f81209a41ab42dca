package app

import (
	"sort"

	"hotel_booking/internal/domain"
)

// FixedPool is the same run of room numbers for every hotel id.
type FixedPool struct{ rooms []int }

// NewFixedPool returns rooms start, start+1, ..., start+size-1.
func NewFixedPool(start, size int) FixedPool {
	rooms := make([]int, 0, size)
	for i := 0; i < size; i++ {
		rooms = append(rooms, start+i)
	}
	return FixedPool{rooms: rooms}
}

// DefaultPool is rooms 101..110.
func DefaultPool() FixedPool { return NewFixedPool(101, 10) }

func (p FixedPool) Rooms(string) []int {
	out := make([]int, len(p.rooms))
	copy(out, p.rooms)
	return out
}

// AvailableRooms lists, in ascending order, the pool rooms of hotelID not
// held by any record overlapping [checkIn, checkOut). Only records of the
// same hotel id count.
func AvailableRooms(hotelID string, checkIn, checkOut domain.Date, records []domain.BookingRecord, pool domain.RoomPool) []int {
	booked := make(map[int]struct{})
	for _, b := range records {
		if b.HotelID != hotelID {
			continue
		}
		if domain.Overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			booked[b.RoomNumber] = struct{}{}
		}
	}

	rooms := pool.Rooms(hotelID)
	sort.Ints(rooms)
	free := make([]int, 0, len(rooms))
	for _, r := range rooms {
		if _, taken := booked[r]; !taken {
			free = append(free, r)
		}
	}
	return free
}

// FindAvailableRoom returns the lowest free room, or false when the pool is
// exhausted for the range. Callers validate checkIn < checkOut.
func FindAvailableRoom(hotelID string, checkIn, checkOut domain.Date, records []domain.BookingRecord, pool domain.RoomPool) (int, bool) {
	free := AvailableRooms(hotelID, checkIn, checkOut, records, pool)
	if len(free) == 0 {
		return 0, false
	}
	return free[0], true
}
