package bookingapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotel_booking/internal/adapters/bookingapi"
	"hotel_booking/internal/domain"
)

func input() domain.BookingInput {
	return domain.BookingInput{
		HotelID: "1", GuestName: "Ana", GuestEmail: "ana@example.com",
		CheckIn: domain.NewDate(2025, 6, 1), CheckOut: domain.NewDate(2025, 6, 3),
	}
}

func TestClient_CreateBooking_RetriesThrottledThenSucceeds(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/v1/bookings":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if atomic.AddInt32(&hits, 1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"hotelId": in["hotelId"], "hotelName": "Grand Luxury Hotel", "name": in["name"], "email": in["email"],
				"checkIn": in["checkIn"], "checkOut": in["checkOut"], "roomNumber": 101,
				"createdAt": "2025-05-20T08:30:00.123Z", "timestamp": 1747729800123,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	cl, err := bookingapi.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cl.Login(ctx, "ana@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}
	rec, err := cl.CreateBooking(ctx, input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.RoomNumber != 101 || !rec.CheckIn.Equal(domain.NewDate(2025, 6, 1)) || rec.Key() != "2025-05-20T08:30:00.123Z" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_ConflictCarriesProblemDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "No Availability", "status": 409, "detail": "no room available for the requested dates"})
	}))
	defer ts.Close()

	cl, _ := bookingapi.New(ts.URL, 100)
	_, err := cl.CreateBooking(context.Background(), input())
	if !errors.Is(err, bookingapi.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestClient_RegisterToleratesExistingAccount(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	cl, _ := bookingapi.New(ts.URL, 100)
	if err := cl.Register(context.Background(), "Ana", "ana@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestClient_CreateBooking_FailuresAfterSendAreNotRetried(t *testing.T) {
	cases := []struct {
		name    string
		handler func(w http.ResponseWriter)
	}{
		{"500", func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) }},
		{"502", func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) }},
		{"503", func(w http.ResponseWriter) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"504", func(w http.ResponseWriter) { w.WriteHeader(http.StatusGatewayTimeout) }},
		{"dropped connection", func(w http.ResponseWriter) { panic(http.ErrAbortHandler) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				tc.handler(w)
			}))
			defer ts.Close()

			cl, _ := bookingapi.New(ts.URL, 100)
			if _, err := cl.CreateBooking(context.Background(), input()); err == nil {
				t.Fatalf("expected error")
			}
			if n := atomic.LoadInt32(&hits); n != 1 {
				t.Fatalf("booking sent %d times", n)
			}
		})
	}
}

func TestClient_ListBookings_RetriesUnavailable(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cl, _ := bookingapi.New(ts.URL, 100)
	if _, err := cl.ListBookings(context.Background(), domain.HistoryFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("want one retry, got %d calls", n)
	}
}

func TestClient_ListBookingsFilters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hotelId") != "3" || r.URL.Query().Get("email") != "ana@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cl, _ := bookingapi.New(ts.URL, 100)
	rs, err := cl.ListBookings(context.Background(), domain.HistoryFilter{HotelID: "3", Email: "ana@example.com"})
	if err != nil || len(rs) != 0 {
		t.Fatalf("list: %v %v", rs, err)
	}
}

func TestClient_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := bookingapi.New(ts.URL, 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cl.CancelBooking(ctx, "2025-05-20T08:30:00.123Z"); !errors.Is(err, bookingapi.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
