package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the relational store selected by DB_DRIVER and sizes its pool.
func InitDB(s *Settings, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "mysql":
		dialector = mysql.Open(s.DBDSN)
	case "postgres":
		dialector = postgres.Open(s.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	gormCfg := &gorm.Config{Logger: gormLogger(s.Env, log.New(os.Stdout, "\r\n", log.LstdFlags))}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting raw DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(s.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(s.DBMaxIdleConns)

	logger.Info("✅ Database connected", zap.String("driver", s.DBDriver))
	return db, nil
}

// gormLogger keeps lookups that find nothing out of the log; callers map those to NotFound.
func gormLogger(env string, w gormlogger.Writer) gormlogger.Interface {
	level := gormlogger.Info
	if env == "production" {
		level = gormlogger.Warn
	}
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env != "production",
	})
}
