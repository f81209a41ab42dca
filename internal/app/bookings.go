package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// BookingService is the only writer of the record store.
type BookingService struct {
	store          domain.RecordStore
	catalog        domain.Catalog
	pool           domain.RoomPool
	events         domain.EventPublisher
	publishTimeout time.Duration
	now            func() time.Time
}

type BookingOption func(*BookingService)

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithEvents(p domain.EventPublisher) BookingOption {
	return func(s *BookingService) { s.events = p }
}

// WithPublishTimeout bounds how long a committed booking waits on its event.
func WithPublishTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) { s.publishTimeout = d }
}

func NewBookingService(store domain.RecordStore, catalog domain.Catalog, pool domain.RoomPool, opts ...BookingOption) *BookingService {
	s := &BookingService{store: store, catalog: catalog, pool: pool, publishTimeout: 2 * time.Second, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *BookingService) check(in domain.BookingInput) (domain.Hotel, error) {
	if err := validateInput(in); err != nil {
		return domain.Hotel{}, err
	}
	h, ok := s.catalog.Get(in.HotelID)
	if !ok {
		return domain.Hotel{}, domain.NewValidationError(domain.ReasonUnknownHotel)
	}
	return h, nil
}

// Quote resolves the room a booking would get right now. Nothing is written
// or held: a concurrent booking may take the room before Create runs.
func (s *BookingService) Quote(ctx context.Context, in domain.BookingInput) (domain.Quote, error) {
	in = normalizeInput(in)
	h, err := s.check(in)
	if err != nil {
		return domain.Quote{}, err
	}
	rs, err := s.store.Load(ctx)
	if err != nil {
		return domain.Quote{}, err
	}
	free := AvailableRooms(in.HotelID, in.CheckIn, in.CheckOut, rs, s.pool)
	if len(free) == 0 {
		return domain.Quote{}, domain.ErrNoAvailability
	}
	return domain.Quote{
		HotelID:    h.ID,
		HotelName:  h.Name,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Nights:     in.CheckIn.DaysUntil(in.CheckOut),
		RoomNumber: free[0],
		FreeRooms:  len(free),
	}, nil
}

// Create commits a booking. Availability is resolved again inside the
// store's atomic update and the lowest free room is written. A room number
// carried over from a quote is only compared against it for logging.
func (s *BookingService) Create(ctx context.Context, in domain.BookingInput) (domain.BookingRecord, error) {
	in = normalizeInput(in)
	h, err := s.check(in)
	if err != nil {
		observability.ObserveBooking("invalid")
		return domain.BookingRecord{}, err
	}

	var created domain.BookingRecord
	err = s.store.Update(ctx, func(rs []domain.BookingRecord) ([]domain.BookingRecord, error) {
		free := AvailableRooms(in.HotelID, in.CheckIn, in.CheckOut, rs, s.pool)
		if len(free) == 0 {
			return nil, domain.ErrNoAvailability
		}
		room := free[0]
		created = domain.BookingRecord{
			HotelID:    h.ID,
			HotelName:  h.Name,
			GuestName:  in.GuestName,
			GuestEmail: in.GuestEmail,
			CheckIn:    in.CheckIn,
			CheckOut:   in.CheckOut,
			RoomNumber: room,
			CreatedAt:  uniqueCreatedAt(s.now(), rs),
		}
		return append(rs, created), nil
	})
	switch {
	case errors.Is(err, domain.ErrNoAvailability):
		observability.ObserveBooking("no_availability")
		return domain.BookingRecord{}, err
	case err != nil:
		observability.ObserveBooking("storage_error")
		log.Error().Err(err).Str("hotel_id", in.HotelID).Msg("booking write failed")
		return domain.BookingRecord{}, err
	}

	observability.ObserveBooking("created")
	if in.RoomNumber != 0 && in.RoomNumber != created.RoomNumber {
		log.Info().Int("quoted", in.RoomNumber).Int("assigned", created.RoomNumber).
			Str("hotel_id", created.HotelID).Msg("quoted room taken, reassigned")
	}
	log.Info().
		Str("hotel_id", created.HotelID).
		Int("room", created.RoomNumber).
		Str("check_in", created.CheckIn.String()).
		Str("check_out", created.CheckOut.String()).
		Str("created_at", created.Key()).
		Msg("booking created")
	s.publish(ctx, domain.EventBookingCreated, created)
	return created, nil
}

// Cancel removes the record created at createdAt. An unknown createdAt is a
// no-op.
func (s *BookingService) Cancel(ctx context.Context, createdAt string) error {
	return s.cancel(ctx, createdAt, "")
}

// CancelFor is Cancel restricted to records booked under email. Another
// guest's record is treated as unknown.
func (s *BookingService) CancelFor(ctx context.Context, createdAt, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.ErrUnauthorized
	}
	return s.cancel(ctx, createdAt, email)
}

func (s *BookingService) cancel(ctx context.Context, createdAt, owner string) error {
	at, err := domain.ParseCreatedAt(createdAt)
	if err != nil {
		return domain.NewValidationError(domain.ReasonCreatedAt)
	}

	var removed []domain.BookingRecord
	err = s.store.Update(ctx, func(rs []domain.BookingRecord) ([]domain.BookingRecord, error) {
		kept := make([]domain.BookingRecord, 0, len(rs))
		removed = removed[:0]
		for _, r := range rs {
			if r.CreatedAt.Equal(at) && (owner == "" || strings.EqualFold(r.GuestEmail, owner)) {
				removed = append(removed, r)
				continue
			}
			kept = append(kept, r)
		}
		if len(removed) == 0 {
			return nil, domain.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		log.Error().Err(err).Str("created_at", createdAt).Msg("booking cancel failed")
		return err
	}
	for _, r := range removed {
		observability.ObserveBooking("cancelled")
		log.Info().Str("hotel_id", r.HotelID).Int("room", r.RoomNumber).
			Str("created_at", r.Key()).Msg("booking cancelled")
		s.publish(ctx, domain.EventBookingCancelled, r)
	}
	return nil
}

// History lists records in insertion order.
func (s *BookingService) History(ctx context.Context, f domain.HistoryFilter) ([]domain.BookingRecord, error) {
	rs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if f.HotelID == "" && f.Email == "" {
		return rs, nil
	}
	out := make([]domain.BookingRecord, 0, len(rs))
	for _, r := range rs {
		if f.HotelID != "" && r.HotelID != f.HotelID {
			continue
		}
		if f.Email != "" && !strings.EqualFold(r.GuestEmail, f.Email) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *BookingService) Get(ctx context.Context, createdAt string) (domain.BookingRecord, error) {
	at, err := domain.ParseCreatedAt(createdAt)
	if err != nil {
		return domain.BookingRecord{}, domain.NewValidationError(domain.ReasonCreatedAt)
	}
	rs, err := s.store.Load(ctx)
	if err != nil {
		return domain.BookingRecord{}, err
	}
	for _, r := range rs {
		if r.CreatedAt.Equal(at) {
			return r, nil
		}
	}
	return domain.BookingRecord{}, domain.ErrNotFound
}

// Availability lists the free rooms of a hotel for a range.
func (s *BookingService) Availability(ctx context.Context, hotelID string, checkIn, checkOut domain.Date) (domain.Availability, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return domain.Availability{}, err
	}
	if _, ok := s.catalog.Get(hotelID); !ok {
		return domain.Availability{}, domain.ErrNotFound
	}
	rs, err := s.store.Load(ctx)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.Availability{
		HotelID:   hotelID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		FreeRooms: AvailableRooms(hotelID, checkIn, checkOut, rs, s.pool),
	}, nil
}

func (s *BookingService) publish(ctx context.Context, typ string, r domain.BookingRecord) {
	if s.events == nil {
		return
	}
	// the booking is already committed; a slow broker must not hold the caller
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	evt := domain.BookingEvent{Type: typ, Record: r, At: s.now().UTC()}
	if err := s.events.Publish(pctx, evt); err != nil {
		log.Warn().Err(err).Str("type", typ).Str("created_at", r.Key()).Msg("publish booking event failed")
	}
}

// uniqueCreatedAt truncates now to the stored precision and steps past any
// existing record identity.
func uniqueCreatedAt(now time.Time, rs []domain.BookingRecord) time.Time {
	at := now.UTC().Truncate(time.Millisecond)
	used := make(map[int64]struct{}, len(rs))
	for _, r := range rs {
		used[r.CreatedAt.UnixMilli()] = struct{}{}
	}
	for {
		if _, dup := used[at.UnixMilli()]; !dup {
			return at
		}
		at = at.Add(time.Millisecond)
	}
}
