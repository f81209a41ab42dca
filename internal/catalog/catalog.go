// Package catalog serves the static hotel list shipped with the service.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"hotel_booking/internal/domain"
)

//go:embed hotels.json
var hotelsJSON []byte

type Static struct {
	hotels []domain.Hotel
	byID   map[string]int
}

// Default returns the embedded catalog. It panics on a malformed embed,
// which is a build defect.
func Default() *Static {
	c, err := FromJSON(hotelsJSON)
	if err != nil {
		panic(err)
	}
	return c
}

func FromJSON(b []byte) (*Static, error) {
	var hs []domain.Hotel
	if err := json.Unmarshal(b, &hs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(hs)
}

func New(hs []domain.Hotel) (*Static, error) {
	c := &Static{hotels: hs, byID: make(map[string]int, len(hs))}
	for i, h := range hs {
		if h.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if _, dup := c.byID[h.ID]; dup {
			return nil, fmt.Errorf("duplicate hotel id %q", h.ID)
		}
		c.byID[h.ID] = i
	}
	return c, nil
}

// All returns a copy of the catalog in its declared order.
func (c *Static) All() []domain.Hotel {
	out := make([]domain.Hotel, len(c.hotels))
	copy(out, c.hotels)
	return out
}

func (c *Static) Get(id string) (domain.Hotel, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Hotel{}, false
	}
	return c.hotels[i], true
}
