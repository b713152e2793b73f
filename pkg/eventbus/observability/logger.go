// Package observability provides logging, metrics, and tracing for the event bus.
//
// Features:
//   - Level-gated, process-wide structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//   - A Prometheus collector over live bus statistics
//
// Metrics and tracing are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
)

// Level is the severity threshold for bus logging.
// Levels are ordered: a line is emitted only if its level is >= the configured one.
type Level int

// Log levels, lowest to highest.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelError
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelError, fmt.Errorf("%w: %q", buserr.ErrInvalidLogLevel, s)
}

// DefaultLevel is the threshold used until SetLevel or InitLogger is called.
const DefaultLevel = LevelError

var (
	levelVar     slog.LevelVar
	currentLevel atomic.Int32
	logger       atomic.Pointer[slog.Logger]
)

func init() {
	InitLogger(os.Stderr, DefaultLevel)
}

// InitLogger replaces the shared logger, writing to w with the given threshold.
func InitLogger(w io.Writer, level Level) {
	SetLevel(level)
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       &levelVar,
		ReplaceAttr: replaceTime,
	})))
}

// SetLevel changes the process-wide threshold. Existing loggers observe the change.
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
	levelVar.Set(level.slogLevel())
}

// CurrentLevel returns the process-wide threshold.
func CurrentLevel() Level {
	return Level(currentLevel.Load())
}

// Enabled reports whether a line at level would be emitted.
func Enabled(level Level) bool {
	return level >= CurrentLevel()
}

// Logger returns the shared bus logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// replaceTime renders timestamps as "2006.1.2 15:04:05".
func replaceTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(slog.TimeKey, a.Value.Time().Format("2006.1.2 15:04:05"))
	}
	return a
}

// LogRegister logs an observer registration.
func LogRegister(logger *slog.Logger, key, observerID string, total int) {
	if logger == nil {
		return
	}
	logger.Info("registering callback",
		slog.String("key", key),
		slog.String("observer_id", observerID),
		slog.Int("observers", total),
	)
}

// LogRemove logs an observer removal.
func LogRemove(logger *slog.Logger, key, observerID string, removed bool) {
	if logger == nil {
		return
	}
	logger.Info("removing callback",
		slog.String("key", key),
		slog.String("observer_id", observerID),
		slog.Bool("removed", removed),
	)
}

// LogSend logs a send.
func LogSend(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Debug("sending event", slog.String("key", key))
}

// LogAsk logs the start of an ask.
func LogAsk(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Info("asking event", slog.String("key", key))
}

// LogAskComplete logs a resolved ask.
func LogAskComplete(logger *slog.Logger, key string, responses int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("all responses received",
		slog.String("key", key),
		slog.Int("responses", responses),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNoObservers logs an ask for a key nobody observes.
func LogNoObservers(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Warn("no observers for key", slog.String("key", key))
}

// LogDispatchError logs a callback failure.
func LogDispatchError(logger *slog.Logger, op, key string, err error) {
	if logger == nil {
		return
	}
	logger.Error("error in observer",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// LogBroadcast logs a broadcast.
func LogBroadcast(logger *slog.Logger, observers int) {
	if logger == nil {
		return
	}
	logger.Info("broadcasting to all observers", slog.Int("observers", observers))
}

// LogClear logs a bulk teardown.
func LogClear(logger *slog.Logger, observers int) {
	if logger == nil {
		return
	}
	logger.Warn("clearing all observers", slog.Int("observers", observers))
}

// TimedOperation measures the duration of an operation.
// The returned function reports elapsed milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
