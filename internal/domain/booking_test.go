package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"hotel_booking/internal/domain"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-06-01", "2025-06-01", true},
		{" 2025-06-01 ", "2025-06-01", true},
		{"2025-06-01T23:30:00Z", "2025-06-01", true},
		{"2025-06-01T10:00:00+07:00", "2025-06-01", true},
		{"01/06/2025", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := domain.ParseDate(tc.in)
		if (err == nil) != tc.ok || got.String() != tc.want {
			t.Errorf("ParseDate(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	d := func(day int) domain.Date { return domain.NewDate(2025, 6, day) }
	cases := []struct {
		a, b, c, e int
		want       bool
	}{
		{1, 3, 3, 5, false}, // checkout day is free
		{3, 5, 1, 3, false},
		{1, 4, 3, 5, true},
		{2, 3, 1, 5, true}, // contained
		{1, 5, 2, 3, true}, // containing
		{1, 2, 4, 5, false},
	}
	for _, tc := range cases {
		if got := domain.Overlaps(d(tc.a), d(tc.b), d(tc.c), d(tc.e)); got != tc.want {
			t.Errorf("Overlaps([%d,%d),[%d,%d)) = %v", tc.a, tc.b, tc.c, tc.e, got)
		}
	}
}

func TestBookingRecord_DecodesStoredBlob(t *testing.T) {
	blob := `[
	  {"hotelId":"2","hotelName":"Mountain View Resort","name":"Dewi","email":"dewi@example.com",
	   "checkIn":"2025-06-10T00:00:00.000Z","checkOut":"2025-06-12","roomNumber":103,
	   "createdAt":"2025-05-20T08:30:00.123Z","timestamp":1747729800123},
	  {"hotelId":"2","name":"Legacy","email":"legacy@example.com",
	   "checkIn":"2025-06-10","checkOut":"2025-06-11","roomNumber":104,"timestamp":1747729800999}
	]`
	var rs []domain.BookingRecord
	if err := json.Unmarshal([]byte(blob), &rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("want 2 records, got %d", len(rs))
	}
	if rs[0].CheckIn.String() != "2025-06-10" || rs[0].Nights() != 2 || rs[0].Key() != "2025-05-20T08:30:00.123Z" {
		t.Fatalf("first record: %+v", rs[0])
	}
	if rs[1].Key() != "2025-05-20T08:30:00.999Z" {
		t.Fatalf("createdAt not derived from timestamp: %s", rs[1].Key())
	}

	out, err := json.Marshal(rs[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"hotelId":"2","hotelName":"Mountain View Resort","name":"Dewi","email":"dewi@example.com","checkIn":"2025-06-10","checkOut":"2025-06-12","roomNumber":103,"createdAt":"2025-05-20T08:30:00.123Z","timestamp":1747729800123}`
	if string(out) != want {
		t.Fatalf("encoded\n got %s\nwant %s", out, want)
	}
}

func TestParseCreatedAt_TruncatesToMillis(t *testing.T) {
	got, err := domain.ParseCreatedAt("2025-05-20T15:30:00.123456+07:00")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 5, 20, 8, 30, 0, 123_000_000, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := domain.ParseCreatedAt("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestErrorKinds(t *testing.T) {
	v := fmt.Errorf("create: %w", domain.NewValidationError(domain.ReasonEmail))
	if !domain.IsValidation(v) || domain.IsStorage(v) {
		t.Fatalf("validation misclassified: %v", v)
	}
	cause := errors.New("disk full")
	s := fmt.Errorf("commit: %w", &domain.StorageError{Op: "save", Err: cause})
	if !domain.IsStorage(s) || !errors.Is(s, cause) {
		t.Fatalf("storage misclassified: %v", s)
	}
}
