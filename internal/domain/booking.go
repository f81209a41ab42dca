package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of check-in/check-out dates.
const DateLayout = "2006-01-02"

// createdAtLayout mirrors an ISO-8601 UTC instant with millisecond precision.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Date is a calendar day without time of day or zone.
type Date struct{ t time.Time }

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" and, leniently, a full RFC 3339 instant
// (only its calendar part is kept).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	return Date{}, fmt.Errorf("parse date %q: want %s", s, DateLayout)
}

func (d Date) IsZero() bool         { return d.t.IsZero() }
func (d Date) Before(o Date) bool   { return d.t.Before(o.t) }
func (d Date) After(o Date) bool    { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool    { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) DaysUntil(o Date) int { return int(o.t.Sub(d.t).Hours() / 24) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Overlaps reports whether [in, out) intersects [otherIn, otherOut).
// Touching at a boundary is not an overlap.
func Overlaps(in, out, otherIn, otherOut Date) bool {
	return in.Before(otherOut) && out.After(otherIn)
}

// BookingRecord is one persisted reservation. Records are immutable once
// written; CreatedAt is their identity.
type BookingRecord struct {
	HotelID    string
	HotelName  string
	GuestName  string
	GuestEmail string
	CheckIn    Date
	CheckOut   Date
	RoomNumber int
	CreatedAt  time.Time
}

// Key is the canonical string form of CreatedAt used to address a record.
func (b BookingRecord) Key() string { return FormatCreatedAt(b.CreatedAt) }

// Nights is the length of stay.
func (b BookingRecord) Nights() int { return b.CheckIn.DaysUntil(b.CheckOut) }

func FormatCreatedAt(t time.Time) string { return t.UTC().Format(createdAtLayout) }

// ParseCreatedAt parses an ISO-8601 instant and normalises it to UTC
// milliseconds, the precision records are stored with.
func ParseCreatedAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse createdAt %q: %w", s, err)
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// recordWire is the stored schema of a booking record.
type recordWire struct {
	HotelID    string `json:"hotelId"`
	HotelName  string `json:"hotelName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CheckIn    Date   `json:"checkIn"`
	CheckOut   Date   `json:"checkOut"`
	RoomNumber int    `json:"roomNumber"`
	CreatedAt  string `json:"createdAt"`
	Timestamp  int64  `json:"timestamp"`
}

func (b BookingRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordWire{
		HotelID:    b.HotelID,
		HotelName:  b.HotelName,
		Name:       b.GuestName,
		Email:      b.GuestEmail,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		RoomNumber: b.RoomNumber,
		CreatedAt:  FormatCreatedAt(b.CreatedAt),
		Timestamp:  b.CreatedAt.UnixMilli(),
	})
}

func (b *BookingRecord) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var created time.Time
	switch {
	case w.CreatedAt != "":
		t, err := ParseCreatedAt(w.CreatedAt)
		if err != nil {
			return err
		}
		created = t
	case w.Timestamp > 0:
		created = time.UnixMilli(w.Timestamp).UTC()
	}
	*b = BookingRecord{
		HotelID:    w.HotelID,
		HotelName:  w.HotelName,
		GuestName:  w.Name,
		GuestEmail: w.Email,
		CheckIn:    w.CheckIn,
		CheckOut:   w.CheckOut,
		RoomNumber: w.RoomNumber,
		CreatedAt:  created,
	}
	return nil
}

// BookingInput is a booking request as entered by a guest.
type BookingInput struct {
	HotelID    string `json:"hotelId" validate:"required"`
	GuestName  string `json:"name" validate:"required"`
	GuestEmail string `json:"email" validate:"required,email"`
	CheckIn    Date   `json:"checkIn" validate:"required"`
	CheckOut   Date   `json:"checkOut" validate:"required"`
	// RoomNumber optionally echoes the room shown by a quote. The writer
	// always assigns the lowest free room regardless.
	RoomNumber int `json:"roomNumber,omitempty"`
}

// Quote is the tentative result shown before the guest confirms.
// Nothing is reserved by a quote.
type Quote struct {
	HotelID    string `json:"hotelId"`
	HotelName  string `json:"hotelName"`
	CheckIn    Date   `json:"checkIn"`
	CheckOut   Date   `json:"checkOut"`
	Nights     int    `json:"nights"`
	RoomNumber int    `json:"roomNumber"`
	FreeRooms  int    `json:"freeRooms"`
}

// HistoryFilter narrows a history listing; empty fields match everything.
type HistoryFilter struct {
	HotelID string
	Email   string
}

// Booking events emitted after a successful write.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

type BookingEvent struct {
	Type   string        `json:"type"`
	Record BookingRecord `json:"record"`
	At     time.Time     `json:"at"`
}
