package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything read from .env / the process environment.
type Settings struct {
	Env     string
	AppPort string

	DBDriver       string
	DBDSN          string
	DBMaxOpenConns int
	DBMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	BatchSize      int
	FanoutInterval time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int

	DeleteMaxAttempts int
	DeleteBaseDelay   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

// Load reads .env (if present) and then the environment.
func Load() (*Settings, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	s := &Settings{
		Env:     getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		DBDriver:       getEnv("DB_DRIVER", "mysql"),
		DBDSN:          os.Getenv("DB_DSN"),
		DBMaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 25),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		BatchSize:      getInt("BATCH_SIZE", 100),
		FanoutInterval: getDuration("FANOUT_INTERVAL", time.Second),

		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 20),

		DeleteMaxAttempts: getInt("DELETE_MAX_ATTEMPTS", 3),
		DeleteBaseDelay:   getDuration("DELETE_BASE_DELAY", 100*time.Millisecond),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@linkup.local"),
	}

	if s.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if s.RedisAddr == "" {
		return nil, errors.New("REDIS_ADDR is not set")
	}
	if s.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
