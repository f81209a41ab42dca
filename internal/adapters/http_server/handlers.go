package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	Q          *app.QueryService
	Bookings   *app.BookingService
	Auth       *app.AuthService
	BookingRPS float64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/{id}", h.getHotel)
		r.Get("/hotels/{id}/availability", h.availability)
		r.Get("/destinations", h.destinations)
		r.Post("/bookings/quote", h.quote)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.Auth))
			r.Post("/logout", h.logout)
			r.With(RateLimit(h.BookingRPS, int(h.BookingRPS)+1)).Post("/bookings", h.createBooking)
			r.Get("/bookings", h.listBookings)
			r.Get("/bookings/{createdAt}", h.getBooking)
			r.Delete("/bookings/{createdAt}", h.cancelBooking)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", ve.Reason)
	case errors.Is(err, domain.ErrNoAvailability):
		writeProblem(w, http.StatusConflict, "No Availability", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case domain.IsStorage(err):
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "booking store unavailable")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

// ---- auth ----

type userView struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView{Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- catalog ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, h.Q.ListHotels(r.Context(), r.URL.Query().Get("q")))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Q.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	writeCached(w, r, hotel)
}

func (h *Handlers) destinations(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, h.Q.Destinations(r.Context()))
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("checkIn") == "" || q.Get("checkOut") == "" {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", domain.ReasonMissingFields)
		return
	}
	in, errIn := domain.ParseDate(q.Get("checkIn"))
	out, errOut := domain.ParseDate(q.Get("checkOut"))
	if errIn != nil || errOut != nil {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", domain.ReasonDateRange)
		return
	}
	av, err := h.Bookings.Availability(r.Context(), chi.URLParam(r, "id"), in, out)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

// ---- bookings ----

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingInput
	if !decode(w, r, &in) {
		return
	}
	q, err := h.Bookings.Quote(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingInput
	if !decode(w, r, &in) {
		return
	}
	rec, err := h.Bookings.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	if u, ok := userFrom(r.Context()); ok {
		log.Debug().Str("booked_by", u.Email).Str("created_at", rec.Key()).Msg("booking request served")
	}
	w.Header().Set("Location", "/v1/bookings/"+rec.Key())
	writeJSON(w, http.StatusCreated, rec)
}

// Booking reads and cancels are scoped to the session user's email.

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	rs, err := h.Bookings.History(r.Context(), domain.HistoryFilter{HotelID: r.URL.Query().Get("hotelId"), Email: u.Email})
	if err != nil {
		writeError(w, err)
		return
	}
	if rs == nil {
		rs = []domain.BookingRecord{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	rec, err := h.Bookings.Get(r.Context(), chi.URLParam(r, "createdAt"))
	if err == nil && !strings.EqualFold(rec.GuestEmail, u.Email) {
		err = domain.ErrNotFound
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	if err := h.Bookings.CancelFor(r.Context(), chi.URLParam(r, "createdAt"), u.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
