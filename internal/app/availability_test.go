package app_test

import (
	"testing"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func d(day int) domain.Date { return domain.NewDate(2025, 6, day) }

func booked(hotel string, room, in, out int) domain.BookingRecord {
	return domain.BookingRecord{HotelID: hotel, RoomNumber: room, CheckIn: d(in), CheckOut: d(out)}
}

func TestFindAvailableRoom_EmptyStoreYields101(t *testing.T) {
	room, ok := app.FindAvailableRoom("1", d(1), d(3), nil, app.DefaultPool())
	if !ok || room != 101 {
		t.Fatalf("want 101, got %d ok=%v", room, ok)
	}
}

func TestFindAvailableRoom_PoolExhaustion(t *testing.T) {
	var rs []domain.BookingRecord
	for room := 101; room <= 110; room++ {
		rs = append(rs, booked("1", room, 1, 5))
	}
	if room, ok := app.FindAvailableRoom("1", d(2), d(3), rs, app.DefaultPool()); ok {
		t.Fatalf("expected no room, got %d", room)
	}
}

func TestFindAvailableRoom_LowestFreeWins(t *testing.T) {
	rs := []domain.BookingRecord{booked("1", 101, 1, 4), booked("1", 103, 2, 6)}
	room, ok := app.FindAvailableRoom("1", d(3), d(5), rs, app.DefaultPool())
	if !ok || room != 102 {
		t.Fatalf("want 102, got %d", room)
	}
}

func TestFindAvailableRoom_BoundaryDoesNotOverlap(t *testing.T) {
	rs := []domain.BookingRecord{booked("1", 101, 3, 5)}
	cases := []struct {
		name    string
		in, out int
	}{
		{"checkout on existing checkin", 1, 3},
		{"checkin on existing checkout", 5, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			room, ok := app.FindAvailableRoom("1", d(tc.in), d(tc.out), rs, app.DefaultPool())
			if !ok || room != 101 {
				t.Fatalf("want 101, got %d", room)
			}
		})
	}
	if room, _ := app.FindAvailableRoom("1", d(4), d(6), rs, app.DefaultPool()); room != 102 {
		t.Fatalf("overlapping stay must skip 101, got %d", room)
	}
}

func TestFindAvailableRoom_HotelsDoNotShareBookings(t *testing.T) {
	rs := []domain.BookingRecord{booked("1", 101, 1, 3)}
	room, ok := app.FindAvailableRoom("2", d(1), d(3), rs, app.DefaultPool())
	if !ok || room != 101 {
		t.Fatalf("room 101 must be free for another hotel id, got %d", room)
	}
}

func TestFindAvailableRoom_Deterministic(t *testing.T) {
	rs := []domain.BookingRecord{booked("1", 101, 1, 3), booked("1", 104, 1, 3)}
	a, _ := app.FindAvailableRoom("1", d(2), d(4), rs, app.DefaultPool())
	b, _ := app.FindAvailableRoom("1", d(2), d(4), rs, app.DefaultPool())
	if a != b || a != 102 {
		t.Fatalf("want 102 twice, got %d and %d", a, b)
	}
}

func TestAvailableRooms_ConfiguredPool(t *testing.T) {
	pool := app.NewFixedPool(201, 3)
	rs := []domain.BookingRecord{booked("1", 202, 1, 3)}
	free := app.AvailableRooms("1", d(1), d(2), rs, pool)
	if len(free) != 2 || free[0] != 201 || free[1] != 203 {
		t.Fatalf("unexpected free rooms: %v", free)
	}
}

func TestFixedPool_RoomsIsACopy(t *testing.T) {
	p := app.DefaultPool()
	r := p.Rooms("1")
	r[0] = 999
	if p.Rooms("1")[0] != 101 {
		t.Fatalf("pool mutated through Rooms")
	}
}
