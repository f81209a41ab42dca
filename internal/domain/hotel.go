package domain

// Hotel is a read-only catalog entry.
type Hotel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	Price      int64    `json:"price"` // per night, IDR
	Rating     float64  `json:"rating"`
	Discount   int      `json:"discount"` // percent
	Facilities []string `json:"facilities"`
	Reviews    int      `json:"reviews"`
	Image      string   `json:"image"`
}

// Destination groups catalog hotels by the first word of their location.
type Destination struct {
	Name   string `json:"name"`
	Hotels int    `json:"hotels"`
}

// Availability lists the free rooms of a hotel for a date range.
type Availability struct {
	HotelID   string `json:"hotelId"`
	CheckIn   Date   `json:"checkIn"`
	CheckOut  Date   `json:"checkOut"`
	FreeRooms []int  `json:"freeRooms"`
}
