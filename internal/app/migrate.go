package app

import (
	"context"

	"victim-aid-go/internal/config"
	"victim-aid-go/internal/db"
	"victim-aid-go/pkg/logger"
)

// Migrate applies pending schema migrations and returns without starting the
// server.
func Migrate(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return db.Migrate(ctx, dbConn, log)
}
