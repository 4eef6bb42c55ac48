//go:build integration

package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"victim-aid-go/internal/config"
	"victim-aid-go/internal/db"
	"victim-aid-go/pkg/logger"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// tables lists every application table; TRUNCATE ... CASCADE follows the
// foreign keys so order does not matter.
var tables = []string{
	"action_log_entries",
	"aid_requests",
	"victims",
	"family_members",
	"families",
	"users",
}

// SetupTestDB starts a shared PostgreSQL container once per test run, applies
// migrations, and returns a connection to an emptied database. The container
// lives until the process exits.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	gormDB, err := db.NewPostgres(config.DBConfig{DSN: sharedDSN, MaxOpenConns: 5, MaxIdleConns: 2}, logger.NewNop())
	if err != nil {
		t.Fatalf("testhelper: failed to connect: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, table := range tables {
		if err := gormDB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			t.Fatalf("testhelper: truncate %s: %v", table, err)
		}
	}

	return gormDB
}

func startContainerAndMigrate() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("victim_aid_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	gormDB, err := db.NewPostgres(config.DBConfig{DSN: dsn}, logger.NewNop())
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := db.Migrate(ctx, gormDB, logger.NewNop()); err != nil {
		return "", fmt.Errorf("migrate: %w", err)
	}

	return dsn, nil
}
