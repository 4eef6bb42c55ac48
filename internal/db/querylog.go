package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"victim-aid-go/pkg/logger"
)

// queryLogger sends gorm output through the application logger. Missing rows
// are expected by the repositories and are not logged; constraint violations
// are reported as business errors.
type queryLogger struct {
	log   logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log logger.Logger, slow time.Duration) *queryLogger {
	return &queryLogger{log: log.With("component", "gorm"), level: gormlogger.Warn, slow: slow}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logger.FromContext(ctx, l.log).Info("db: "+msg, "args", args)
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logger.FromContext(ctx, l.log).Warn("db: "+msg, "args", args)
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logger.FromContext(ctx, l.log).Error("db: "+msg, "args", args)
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := logger.FromContext(ctx, l.log)

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)):
		sql, _ := fc()
		log.BusinessError("db: constraint violated", err, "sql", sql)
	case err != nil && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.InternalError("db: query failed", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn("db: slow query", "sql", sql, "rows", rows, "elapsed", elapsed, "threshold", l.slow)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug("db: query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
