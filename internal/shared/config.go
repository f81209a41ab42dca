package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string // memory|sqlite|mysql|redis
	SQLitePath  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	RoomPoolStart int
	RoomPoolSize  int
	SessionTTL    time.Duration
	BookingRPS    int

	KafkaBrokers []string
	KafkaTopic   string

	// seeder
	APIBase     string
	APIEmail    string
	APIPassword string
	SeedFile    string
	SeedWorkers int
}

func Load() Config {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		StoreDriver:   strings.ToLower(env("STORE_DRIVER", "sqlite")),
		SQLitePath:    env("SQLITE_PATH", "data/bookings.db"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/booking?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		RoomPoolStart: atoi("ROOM_POOL_START", 101),
		RoomPoolSize:  atoi("ROOM_POOL_SIZE", 10),
		SessionTTL:    time.Duration(atoi("SESSION_TTL_SECONDS", 86400)) * time.Second,
		BookingRPS:    atoi("BOOKING_RPS", 20),
		KafkaBrokers:  splitList(env("KAFKA_BROKERS", "")),
		KafkaTopic:    env("KAFKA_TOPIC", "bookings"),
		APIBase:       env("API_BASE_URL", "http://localhost:8080"),
		APIEmail:      env("API_EMAIL", ""),
		APIPassword:   env("API_PASSWORD", ""),
		SeedFile:      env("SEED_FILE", "seed/bookings.json"),
		SeedWorkers:   atoi("SEED_WORKERS", 4),
	}
	if c.RoomPoolSize <= 0 {
		log.Warn().Int("size", c.RoomPoolSize).Msg("ROOM_POOL_SIZE must be positive, using 10")
		c.RoomPoolSize = 10
	}
	if c.StoreDriver == "redis" && c.RedisAddr == "" {
		log.Warn().Msg("STORE_DRIVER=redis but REDIS_ADDR is empty, using localhost:6379")
		c.RedisAddr = "localhost:6379"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
