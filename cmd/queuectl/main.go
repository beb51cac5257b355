package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to read .env", zap.Error(err))
	}

	if err := newRootCmd(os.Stdout, logger).Execute(); err != nil {
		os.Exit(1)
	}
}
