package app

import (
	"context"
	"strings"

	"hotel_booking/internal/domain"
)

// QueryService answers read-only catalog questions.
type QueryService struct {
	catalog domain.Catalog
}

func NewQueryService(c domain.Catalog) *QueryService {
	return &QueryService{catalog: c}
}

// ListHotels matches q case-insensitively against name, location and
// facilities. An empty q returns the whole catalog.
func (s *QueryService) ListHotels(ctx context.Context, q string) []domain.Hotel {
	all := s.catalog.All()
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all
	}
	out := make([]domain.Hotel, 0, len(all))
	for _, h := range all {
		if matches(h, q) {
			out = append(out, h)
		}
	}
	return out
}

func matches(h domain.Hotel, q string) bool {
	if strings.Contains(strings.ToLower(h.Name), q) || strings.Contains(strings.ToLower(h.Location), q) {
		return true
	}
	for _, f := range h.Facilities {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *QueryService) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	h, ok := s.catalog.Get(id)
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

// Destinations counts hotels per first word of their location, in order of
// first appearance.
func (s *QueryService) Destinations(ctx context.Context) []domain.Destination {
	var out []domain.Destination
	idx := map[string]int{}
	for _, h := range s.catalog.All() {
		fields := strings.Fields(h.Location)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if i, ok := idx[name]; ok {
			out[i].Hotels++
			continue
		}
		idx[name] = len(out)
		out = append(out, domain.Destination{Name: name, Hotels: 1})
	}
	return out
}
