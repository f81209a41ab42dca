// Package bookingapi is an HTTP client for the booking service, used by the
// seeder and smoke tooling.
package bookingapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter

	mu    sync.RWMutex
	token string
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = errors.New("bookingapi: not found")
	ErrUnauthorized = errors.New("bookingapi: unauthorized")
	ErrConflict     = errors.New("bookingapi: conflict")
	ErrInvalid      = errors.New("bookingapi: invalid request")
)

// ---- Public API ----

// Register creates the account; an already registered email is not an error.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/v1/register", body, nil)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}

// Login stores the session token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var sess domain.Session
	if err := c.do(ctx, http.MethodPost, "/v1/login", map[string]string{"email": email, "password": password}, &sess); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = sess.Token
	c.mu.Unlock()
	return nil
}

func (c *Client) CreateBooking(ctx context.Context, in domain.BookingInput) (domain.BookingRecord, error) {
	var out domain.BookingRecord
	return out, c.do(ctx, http.MethodPost, "/v1/bookings", in, &out)
}

func (c *Client) Quote(ctx context.Context, in domain.BookingInput) (domain.Quote, error) {
	var out domain.Quote
	return out, c.do(ctx, http.MethodPost, "/v1/bookings/quote", in, &out)
}

func (c *Client) ListBookings(ctx context.Context, f domain.HistoryFilter) ([]domain.BookingRecord, error) {
	q := url.Values{}
	if f.HotelID != "" {
		q.Set("hotelId", f.HotelID)
	}
	if f.Email != "" {
		q.Set("email", f.Email)
	}
	path := "/v1/bookings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.BookingRecord
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

func (c *Client) CancelBooking(ctx context.Context, createdAt string) error {
	return c.do(ctx, http.MethodDelete, "/v1/bookings/"+url.PathEscape(createdAt), nil, nil)
}

// ---- Internals ----

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// retryable reports whether a response may be retried. Writes are retried
// only on 429, which the server returns before touching the store; any other
// failure may follow a commit.
func retryable(method string, status int) bool {
	if method != http.MethodGet {
		return status == http.StatusTooManyRequests
	}
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do performs a request with client-side rate limiting, retries, and JSON
// decode into out. Retries honor Retry-After when provided.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	start := time.Now()
	status := 0
	defer func() { observability.ObserveExternal("booking_api", method+" "+routeLabel(path), status, time.Since(start)) }()

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-booking-seeder/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.mu.RLock()
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		c.mu.RUnlock()

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if method == http.MethodGet && i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		status = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case retryable(method, resp.StatusCode):
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return statusError(resp)
		}
	}

	return lastErr
}

func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var p problem
	detail := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &p) == nil && p.Detail != "" {
		detail = p.Detail
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalid, detail)
	}
	return fmt.Errorf("bad status %d: %s", resp.StatusCode, detail)
}

// routeLabel drops ids and query strings to keep metric cardinality low.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.HasPrefix(path, "/v1/bookings/") && path != "/v1/bookings/quote" {
		return "/v1/bookings/{createdAt}"
	}
	return path
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
