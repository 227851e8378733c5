package models

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

// queryLogger routes gorm's log output through zerolog so that database
// activity ends up in the same stream as the request logs.
type queryLogger struct {
	log zerolog.Logger
}

func (l *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *queryLogger) Info(_ context.Context, format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *queryLogger) Warn(_ context.Context, format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *queryLogger) Error(_ context.Context, format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	elapsed := time.Since(begin)

	// Not finding a resource is an expected outcome, not a database problem
	if err != nil && !errors.Is(err, ErrResourceNotFound) {
		l.log.Error().Err(err).Str("query", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query failed")
		return
	}

	l.log.Debug().Str("query", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
}
