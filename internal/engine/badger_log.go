// ABOUTME: Adapter routing BadgerDB's printf-style logging into slog
// ABOUTME: Keeps verdict cache diagnostics in the same structured stream as the rest of the run

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// slogBadgerLogger implements badger.Logger on top of slog.
type slogBadgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogBadgerLogger)(nil)

// NewBadgerLogger wraps logger for use as CacheConfig.Logger.
func NewBadgerLogger(logger *slog.Logger) badger.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogBadgerLogger{logger: logger.With(slog.String("component", "verdict_cache"))}
}

func (l *slogBadgerLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *slogBadgerLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *slogBadgerLogger) Warningf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *slogBadgerLogger) Infof(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *slogBadgerLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}
