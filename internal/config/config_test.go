package config

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/linkup?parseTime=true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Env != "development" || s.AppPort != "8080" || s.DBDriver != "mysql" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.JWTTTL != 24*time.Hour || s.BatchSize != 100 || s.DeleteMaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("BATCH_SIZE", "25")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-4")
	t.Setenv("DELETE_BASE_DELAY", "not-a-duration")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Env != "production" || s.DBDriver != "postgres" || s.JWTTTL != 90*time.Minute || s.BatchSize != 25 {
		t.Fatalf("overrides not applied: %+v", s)
	}
	if s.RateLimitPerMinute != 120 || s.DeleteBaseDelay != 100*time.Millisecond {
		t.Fatalf("invalid values should fall back to defaults: %+v", s)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"DB_DSN", "REDIS_ADDR", "JWT_SECRET"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error without %s", key)
			}
		})
	}
}

func TestInitDB_UnknownDriver(t *testing.T) {
	if _, err := InitDB(&Settings{DBDriver: "sqlite"}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := InitRedis(context.Background(), &Settings{RedisAddr: addr}, zap.NewNop())
	if err != nil {
		t.Fatalf("InitRedis: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := InitRedis(context.Background(), &Settings{RedisAddr: addr}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error when redis is down")
	}
}

type lineWriter struct{ lines []string }

func (w *lineWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	w := &lineWriter{}
	l := gormLogger("production", w)
	query := func() (string, int64) { return "SELECT * FROM users WHERE id = 1", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	if len(w.lines) != 0 {
		t.Fatalf("record not found should not be logged, got %v", w.lines)
	}

	l.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))
	if len(w.lines) != 1 {
		t.Fatalf("expected the real failure to be logged once, got %d lines", len(w.lines))
	}

	l.Trace(context.Background(), time.Now(), query, nil)
	if len(w.lines) != 1 {
		t.Fatalf("production should not log fast successful queries, got %d lines", len(w.lines))
	}
}

func TestGormLogger_DevelopmentLogsQueries(t *testing.T) {
	w := &lineWriter{}
	l := gormLogger("development", w)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if len(w.lines) != 1 {
		t.Fatalf("expected the query to be logged, got %d lines", len(w.lines))
	}
}
