package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/bookingapi"
	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
)

// seeder replays a JSON file of booking requests against a running API.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.APIBase).
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	var inputs []domain.BookingInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		log.Fatal().Err(err).Msg("decode seed file failed")
	}

	client, err := bookingapi.New(cfg.APIBase, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize booking API client")
	}
	if cfg.APIEmail == "" || cfg.APIPassword == "" {
		log.Fatal().Msg("API_EMAIL and API_PASSWORD are required")
	}
	if err := client.Register(ctx, "Seeder", cfg.APIEmail, cfg.APIPassword); err != nil {
		log.Fatal().Err(err).Msg("register failed")
	}
	if err := client.Login(ctx, cfg.APIEmail, cfg.APIPassword); err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}

	workers := cfg.SeedWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var created, full, failed int64

	for i, in := range inputs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int, in domain.BookingInput) {
			defer wg.Done()
			defer sem.Release(1)

			rec, err := client.CreateBooking(ctx, in)
			switch {
			case err == nil:
				atomic.AddInt64(&created, 1)
				log.Info().Int("n", n).Str("hotel_id", rec.HotelID).Int("room", rec.RoomNumber).Msg("booked")
			case errors.Is(err, bookingapi.ErrConflict):
				atomic.AddInt64(&full, 1)
				log.Warn().Int("n", n).Str("hotel_id", in.HotelID).Msg("no availability")
			default:
				atomic.AddInt64(&failed, 1)
				log.Warn().Int("n", n).Str("hotel_id", in.HotelID).Err(err).Msg("booking failed")
			}
		}(i, in)
	}

	wg.Wait()
	log.Info().
		Int64("created", created).
		Int64("no_availability", full).
		Int64("failed", failed).
		Msg("seeding completed")
}
