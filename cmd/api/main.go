package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/events"
	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/catalog"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/kvrepo"
	"hotel_booking/internal/storage/memory"
	mysqlrepo "hotel_booking/internal/storage/mysql"
	"hotel_booking/internal/storage/sqlite"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// store
	kv, closeKV := openStore(ctx, cfg)
	defer closeKV()

	// sessions
	var sessions domain.Cache = memory.NewCache()
	if cfg.RedisAddr != "" {
		sessions = redisad.New(redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB))
	}

	// events
	var publisher domain.EventPublisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("kafka publisher init failed")
		}
		defer pub.Close()
		publisher = pub
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing booking events")
	}

	// deps
	cat := catalog.Default()
	pool := app.NewFixedPool(cfg.RoomPoolStart, cfg.RoomPoolSize)
	bookings := app.NewBookingService(kvrepo.NewBookings(kv), cat, pool, app.WithEvents(publisher))
	auth := app.NewAuthService(kvrepo.NewUsers(kv), sessions, cfg.SessionTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:          app.NewQueryService(cat),
		Bookings:   bookings,
		Auth:       auth,
		BookingRPS: float64(cfg.BookingRPS),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("store", cfg.StoreDriver).
		Int("pool_start", cfg.RoomPoolStart).
		Int("pool_size", cfg.RoomPoolSize).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// openStore picks the KV backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg shared.Config) (domain.KV, func()) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("memory store: bookings are lost on restart")
		return memory.NewKV(), func() {}

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), closer(db)

	case "redis":
		c := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := c.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		return redisad.NewKV(c, "hotelbook:"), closer(c)

	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open failed")
		}
		log.Info().Str("path", s.Path()).Msg("sqlite store ready")
		return s, closer(s)
	}
	log.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown STORE_DRIVER")
	return nil, nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}
}
