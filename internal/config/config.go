package config

import (
	"fmt"

	"go.uber.org/zap"
)

var Logger *zap.Logger

// InitLogger builds the root zap logger. Production encoding is used when env is "production".
func InitLogger(env string) (*zap.Logger, error) {
	var err error
	if env == "production" {
		Logger, err = zap.NewProduction()
	} else {
		Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}

	Logger.Info("✅ Zap logger initialized", zap.String("env", env))
	return Logger, nil
}
